// newsprint is a command-line tool for searching digitized newspaper and
// book archives encoded as METS/ALTO XML.
//
// It opens one archive (a directory, a ZIP file or an http(s) URL of a
// ZIP), runs a keyword query over every text block of every page and
// writes the matches as YAML, grouped by publication year. Optionally it
// renders a PDF report outlining the matched regions and crops the
// matched blocks out of the page images.
//
// Usage:
//
//	newsprint -archive path/to/archive -query query.yml [options]
//
// Required flags:
//
//	-archive string   Archive path, ZIP file or URL
//	-query string     Path to a YAML query file
//
// Output options:
//
//	-results string   Write matches as YAML to this file (default stdout)
//	-report string    Write a PDF report of matched regions to this file
//	-crops string     Write JPEG crops of matched blocks to this directory
//
// Processing options:
//
//	-family string    Pin the archive family (fmp, books, nls) instead of detecting
//
// The query file holds the search tokens and matcher settings:
//
//	tokens:
//	  - parliament
//	  - assembly
//	fuzz_method: token_set_ratio
//	min_ratio: 85
//	regex: false
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/png"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gardar/newsprint/pkg/alto"
	"github.com/gardar/newsprint/pkg/archive"
	"github.com/gardar/newsprint/pkg/crop"
	"github.com/gardar/newsprint/pkg/match"
	"github.com/gardar/newsprint/pkg/mets"
	"github.com/gardar/newsprint/pkg/report"
)

type queryConfig struct {
	Tokens         []string `yaml:"tokens"`
	FuzzMethod     string   `yaml:"fuzz_method"`
	MinRatio       int      `yaml:"min_ratio"`
	Regex          bool     `yaml:"regex"`
	Normalise      *bool    `yaml:"normalise"`
	IncludeNumbers *bool    `yaml:"include_numbers"`
	Stem           *bool    `yaml:"stem"`
	AllResults     bool     `yaml:"all_results"`
}

func (q queryConfig) options() match.Options {
	opts := match.DefaultOptions()
	if q.FuzzMethod != "" {
		opts.FuzzMethod = q.FuzzMethod
	}
	if q.MinRatio != 0 {
		opts.MinRatio = q.MinRatio
	}
	opts.Regex = q.Regex
	opts.AllResults = q.AllResults
	if q.Normalise != nil {
		opts.Normalise = *q.Normalise
	}
	if q.IncludeNumbers != nil {
		opts.IncludeNumbers = *q.IncludeNumbers
	}
	if q.Stem != nil {
		opts.Stem = *q.Stem
	}
	return opts
}

type resultEntry struct {
	Document  string `yaml:"document"`
	Page      string `yaml:"page"`
	TextBlock string `yaml:"textblock"`
	Token     string `yaml:"token"`
	Score     int    `yaml:"score"`
	X         int    `yaml:"x"`
	Y         int    `yaml:"y"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
}

type output struct {
	Archive       string                `yaml:"archive"`
	Family        string                `yaml:"family"`
	Matches       []resultEntry         `yaml:"matches"`
	MatchesByYear map[int][]resultEntry `yaml:"matches_by_year,omitempty"`
}

func main() {
	archivePath := flag.String("archive", "", "Archive path, ZIP file or URL")
	queryPath := flag.String("query", "", "Path to a YAML query file")
	resultsPath := flag.String("results", "", "Write matches as YAML to this file (default stdout)")
	reportPath := flag.String("report", "", "Write a PDF report of matched regions to this file")
	cropsDir := flag.String("crops", "", "Write JPEG crops of matched blocks to this directory")
	familyName := flag.String("family", "", "Pin the archive family (fmp, books, nls)")
	flag.Parse()

	if *archivePath == "" {
		fmt.Println("Error: Must provide -archive path")
		os.Exit(1)
	}
	if *queryPath == "" {
		fmt.Println("Error: Must provide -query path")
		os.Exit(1)
	}

	queryData, err := os.ReadFile(*queryPath)
	if err != nil {
		fmt.Printf("Failed to read query file: %v\n", err)
		os.Exit(1)
	}
	var query queryConfig
	if err := yaml.Unmarshal(queryData, &query); err != nil {
		fmt.Printf("Failed to parse query file: %v\n", err)
		os.Exit(1)
	}
	if len(query.Tokens) == 0 {
		fmt.Println("Error: Query file must list at least one token")
		os.Exit(1)
	}
	opts := query.options()
	opts.AddTextBlock = *cropsDir != ""

	var arch *archive.Archive
	if *familyName != "" {
		arch, err = archive.OpenFamily(*archivePath, *familyName)
	} else {
		arch, err = archive.Open(*archivePath)
	}
	if err != nil {
		fmt.Printf("Failed to open archive: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Opened %s archive with %d documents\n", arch.Family(), arch.DocumentCount())

	out := output{Archive: arch.Path(), Family: arch.Family()}
	byYear := make(map[int][]resultEntry)
	var pages []report.PageReport
	var cropCount int

	err = arch.EachDocument(func(doc *mets.Document) error {
		hits, err := doc.Match(opts, query.Tokens...)
		if err != nil {
			return fmt.Errorf("document %s: %w", doc.Code, err)
		}
		if len(hits) == 0 {
			return nil
		}

		for _, hit := range hits {
			entry := resultEntry{
				Document:  hit.Nav.DocumentCode,
				Page:      hit.Nav.PageCode,
				TextBlock: hit.Nav.TextBlockID,
				Token:     hit.Token,
				Score:     hit.Score,
				X:         hit.X,
				Y:         hit.Y,
				Width:     hit.Width,
				Height:    hit.Height,
			}
			out.Matches = append(out.Matches, entry)
			if year, ok := doc.Year(); ok {
				byYear[year] = append(byYear[year], entry)
			}
		}

		if *reportPath != "" {
			pages = append(pages, reportPages(doc, hits)...)
		}
		if *cropsDir != "" {
			n, err := writeCrops(arch, doc, hits, *cropsDir)
			if err != nil {
				fmt.Printf("Warning: crops for document %s: %v\n", doc.Code, err)
			}
			cropCount += n
		}
		return nil
	})
	if err != nil {
		fmt.Printf("Query failed: %v\n", err)
		os.Exit(1)
	}
	if len(byYear) > 0 {
		out.MatchesByYear = byYear
	}

	resultsData, err := yaml.Marshal(out)
	if err != nil {
		fmt.Printf("Failed to encode results: %v\n", err)
		os.Exit(1)
	}
	if *resultsPath == "" {
		os.Stdout.Write(resultsData)
	} else {
		if err := os.WriteFile(*resultsPath, resultsData, 0o644); err != nil {
			fmt.Printf("Failed to write results: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %d matches to %s\n", len(out.Matches), *resultsPath)
	}

	if *reportPath != "" {
		pdf, err := report.Render("newsprint query", pages)
		if err != nil {
			fmt.Printf("Failed to render report: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*reportPath, pdf, 0o644); err != nil {
			fmt.Printf("Failed to write report: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote report to %s\n", *reportPath)
	}
	if *cropsDir != "" {
		fmt.Printf("Wrote %d crops to %s\n", cropCount, *cropsDir)
	}
}

// reportPages groups hits by page and turns each matched block's
// bounding box into a highlighted region.
func reportPages(doc *mets.Document, hits []alto.Result) []report.PageReport {
	byPage := make(map[string]*report.PageReport)
	var order []string
	for _, hit := range hits {
		pr, ok := byPage[hit.Nav.PageCode]
		if !ok {
			page, err := doc.Page(hit.Nav.PageCode)
			if err != nil {
				continue
			}
			pr = &report.PageReport{
				DocumentCode: doc.Code,
				PageCode:     hit.Nav.PageCode,
				Width:        float64(page.Width),
				Height:       float64(page.Height),
			}
			byPage[hit.Nav.PageCode] = pr
			order = append(order, hit.Nav.PageCode)
		}
		pr.Boxes = append(pr.Boxes, report.Box{
			Label: fmt.Sprintf("%s (%d)", hit.Token, hit.Score),
			X0:    float64(hit.X),
			Y0:    float64(hit.Y),
			X1:    float64(hit.X + hit.Width),
			Y1:    float64(hit.Y + hit.Height),
		})
	}
	pages := make([]report.PageReport, 0, len(order))
	for _, code := range order {
		pages = append(pages, *byPage[code])
	}
	return pages
}

// writeCrops cuts the bounding box of each matched block out of its page
// image. Pages without a resolvable image are skipped with a warning.
func writeCrops(arch *archive.Archive, doc *mets.Document, hits []alto.Result, dir string) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	// One crop per matched block, not per matched token.
	seen := make(map[string]bool)
	count := 0
	for _, hit := range hits {
		if hit.Block == nil {
			continue
		}
		key := hit.Nav.PageCode + "/" + hit.Nav.TextBlockID
		if seen[key] {
			continue
		}
		seen[key] = true

		img, err := arch.OpenImage(doc.Code, hit.Nav.PageCode)
		if err != nil {
			fmt.Printf("Warning: no image for page %s: %v\n", hit.Nav.PageCode, err)
			continue
		}
		box := hit.Block.BoundingBox()
		rect := image.Rect(box.X0, box.Y0, box.X1, box.Y1)
		cropped := crop.Crop(img, rect)

		imgPath, _ := arch.ImagePath(doc.Code, hit.Nav.PageCode)
		name := crop.Filename(imgPath, "", hit.Token, rect)
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return count, err
		}
		if err := crop.EncodeJPEG(f, cropped, crop.DefaultQuality); err != nil {
			f.Close()
			return count, err
		}
		if err := f.Close(); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
