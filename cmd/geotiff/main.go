package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sarthakregmi/geotiff"
	"github.com/spf13/cobra"
	"go.airbusds-geo.com/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()
	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var structured bool
	cmd := &cobra.Command{
		Use:   "geotiff",
		Short: "write and inspect strip-based geotiff files",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if structured {
				log.Structured()
			}
		},
	}
	cmd.PersistentFlags().BoolVar(&structured, "structured-logging", false, "json log output")
	cmd.AddCommand(newWriteCommand())
	cmd.AddCommand(newInfoCommand())
	return cmd
}

func newWriteCommand() *cobra.Command {
	var width, height int
	var typeName, name, metadata string
	var scaleFlag, originFlag, transformFlag string
	var epsg int
	var citation string
	var output string

	cmd := &cobra.Command{
		Use:   "write band.raw [band.raw...]",
		Short: "assemble raw band dumps into a geotiff file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			defer func() {
				log.Logger(cmd.Context()).Sugar().Debugf("command %s took %.1fs",
					cmd.Name(), time.Since(start).Seconds())
			}()
			dt, err := geotiff.ParseDataType(typeName)
			if err != nil {
				return err
			}
			scale, err := parseFloats(scaleFlag)
			if err != nil {
				return fmt.Errorf("invalid --scale: %w", err)
			}
			origin, err := parseFloats(originFlag)
			if err != nil {
				return fmt.Errorf("invalid --origin: %w", err)
			}
			transform, err := parseFloats(transformFlag)
			if err != nil {
				return fmt.Errorf("invalid --transform: %w", err)
			}
			img := &geotiff.Image{
				Width:    width,
				Height:   height,
				Name:     name,
				Metadata: metadata,
			}
			for _, a := range args {
				img.Bands = append(img.Bands, geotiff.Band{Name: a, DataType: dt})
			}
			img.Geo = buildGeo(scale, origin, transform, epsg, citation)
			img.LoadStrip = func(b int, data []byte) error {
				return readRawBand(args[b], data)
			}

			out, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := geotiff.NewWriter(out).WriteImage(img); err != nil {
				out.Close()
				return fmt.Errorf("write %s: %w", output, err)
			}
			return out.Close()
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&width, "width", 0, "image width in pixels")
	flags.IntVar(&height, "height", 0, "image height in pixels")
	flags.StringVar(&typeName, "type", "uint8", "band sample type: int8|int16|int32|uint8|uint16|uint32|float32|float64")
	flags.StringVar(&name, "name", "", "scene name stored as the image description")
	flags.StringVar(&metadata, "metadata", "", "free-text metadata embedded in the file")
	flags.StringVar(&scaleFlag, "scale", "", "model pixel scale, \"sx,sy\"")
	flags.StringVar(&originFlag, "origin", "", "model coordinates of the upper-left pixel, \"x,y\"")
	flags.StringVar(&transformFlag, "transform", "", "16 comma-separated values of the raster-to-model transformation matrix")
	flags.IntVar(&epsg, "epsg", 0, "projected coordinate system EPSG code")
	flags.StringVar(&citation, "citation", "", "citation geo key")
	flags.StringVarP(&output, "output", "o", "out.tif", "destination file")
	cmd.MarkFlagRequired("width")
	cmd.MarkFlagRequired("height")
	return cmd
}

func buildGeo(scale, origin, transform []float64, epsg int, citation string) *geotiff.GeoMetadata {
	if len(scale) == 0 && len(origin) == 0 && len(transform) == 0 && epsg == 0 && citation == "" {
		return nil
	}
	geo := geotiff.NewGeoMetadata()
	geo.AddShortKey(geotiff.KeyGTModelType, geotiff.ModelTypeProjected)
	geo.AddShortKey(geotiff.KeyGTRasterType, geotiff.RasterPixelIsArea)
	if citation != "" {
		geo.AddAsciiKey(geotiff.KeyGTCitation, citation)
	}
	if epsg != 0 {
		geo.AddShortKey(geotiff.KeyProjectedCSType, epsg)
	}
	if len(transform) == 16 {
		geo.SetModelTransformation(transform)
	}
	if len(scale) >= 2 {
		geo.SetModelPixelScale(scale[0], scale[1], 0)
	}
	if len(origin) >= 2 {
		geo.AddModelTiePoint(geotiff.TiePoint{0, 0, 0, origin[0], origin[1], 0})
	}
	return geo
}

func readRawBand(path string, data []byte) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if st.Size() != int64(len(data)) {
		return fmt.Errorf("%s holds %d bytes, band strip needs %d", path, st.Size(), len(data))
	}
	if _, err := io.ReadFull(f, data); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

func newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info file.tif",
		Short: "print the directory summary of a geotiff file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()
			info, err := geotiff.ReadInfo(f)
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			fmt.Print(info.Summary())
			return nil
		},
	}
}

func parseFloats(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	vals := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", p, err)
		}
		vals[i] = v
	}
	return vals, nil
}
