package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samirrijal/annotile/internal/core/domain"
	"github.com/samirrijal/annotile/internal/core/usecases"
)

var (
	captureName        string
	captureCategory    string
	captureZoom        int
	captureServer      string
	capturePolygon     string
	capturePolygonFile string
	captureJSON        bool
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture a polygon into a stitched raster and registry record",
	Long: `Capture fetches the tile grid covering a polygon, stitches the tiles into
one PNG, projects the vertices into pixel space and records the annotation.

The polygon is a whitespace-separated list of lat,lon vertices, inline or in a
file (one or more vertices per line):

  annotile capture --name roof --polygon "43.2630,-2.9350 43.2632,-2.9350 43.2631,-2.9348"
  annotile capture --name roof --polygon-file roof.txt`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		vertices := capturePolygon
		if capturePolygonFile != "" {
			data, err := os.ReadFile(capturePolygonFile)
			if err != nil {
				fatal("reading polygon file", err)
			}
			vertices = string(data)
		}
		polygon, err := parsePolygon(vertices)
		if err != nil {
			fatal("parsing polygon", err)
		}

		serverName, template, err := cfg.ResolveTileServer(captureServer)
		if err != nil {
			fatal("resolving tile server", err)
		}

		captures, _, cache, err := buildServices()
		if err != nil {
			fatal("wiring services", err)
		}
		if cache != nil {
			defer cache.Close()
		}

		record, err := captures.Capture(context.Background(), usecases.CaptureRequest{
			Name:        captureName,
			Category:    captureCategory,
			Polygon:     polygon,
			Zoom:        captureZoom,
			TileServer:  serverName,
			URLTemplate: template,
		})
		if err != nil {
			fatal("capture failed", err)
		}

		if captureJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(record); err != nil {
				fatal("encoding record", err)
			}
			return
		}

		fmt.Printf("Captured %s\n", record.ID)
		fmt.Printf("  zoom:  %d\n", record.Zoom)
		fmt.Printf("  size:  %dx%d px\n", record.ImageWidth, record.ImageHeight)
		fmt.Printf("  image: %s\n", record.ImagePath)
	},
}

// parsePolygon reads a space-separated list of lat,lon pairs.
func parsePolygon(s string) (domain.Polygon, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, fmt.Errorf("polygon is required")
	}

	pg := make(domain.Polygon, 0, len(fields))
	for _, f := range fields {
		lat, lon, ok := strings.Cut(f, ",")
		if !ok {
			return nil, fmt.Errorf("vertex %q: want lat,lon", f)
		}
		latF, err := strconv.ParseFloat(lat, 64)
		if err != nil {
			return nil, fmt.Errorf("vertex %q: %w", f, err)
		}
		lonF, err := strconv.ParseFloat(lon, 64)
		if err != nil {
			return nil, fmt.Errorf("vertex %q: %w", f, err)
		}
		pg = append(pg, domain.GeoPoint{Lat: latF, Lon: lonF})
	}
	return pg, nil
}

func init() {
	rootCmd.AddCommand(captureCmd)
	captureCmd.Flags().StringVar(&captureName, "name", "", "Annotation name (required)")
	captureCmd.Flags().StringVar(&captureCategory, "category", "", "Annotation category")
	captureCmd.Flags().IntVar(&captureZoom, "zoom", 0, "Tile zoom level (0 = automatic)")
	captureCmd.Flags().StringVar(&captureServer, "server", "", "Tile server name or raw XYZ template")
	captureCmd.Flags().StringVar(&capturePolygon, "polygon", "", "Space-separated lat,lon vertices")
	captureCmd.Flags().StringVar(&capturePolygonFile, "polygon-file", "", "File with whitespace-separated lat,lon vertices")
	captureCmd.Flags().BoolVar(&captureJSON, "json", false, "Output the record as JSON")
	captureCmd.MarkFlagsOneRequired("polygon", "polygon-file")
	captureCmd.MarkFlagsMutuallyExclusive("polygon", "polygon-file")
	_ = captureCmd.MarkFlagRequired("name")
}
