package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/team-avesta/Eventure-sub001/internal/render"
)

var (
	renderOut       string
	renderMaxWidth  int
	renderNoLabels  bool
	renderHighlight string
)

var renderCmd = &cobra.Command{
	Use:   "render <screenshot-id>",
	Short: "Write a screenshot with its regions drawn on as PNG",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.log.Close()

		f, err := os.Create(renderOut)
		if err != nil {
			return err
		}
		err = a.upload.Export(cmd.Context(), args[0], f, render.Options{
			MaxWidth:  renderMaxWidth,
			NoLabels:  renderNoLabels,
			Highlight: renderHighlight,
		})
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(renderOut)
			return fmt.Errorf("render %s: %w", args[0], err)
		}
		a.log.Info().Str("screenshot", args[0]).Str("out", renderOut).Msg("annotated image written")
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "annotated.png", "Output file")
	renderCmd.Flags().IntVar(&renderMaxWidth, "max-width", 0, "Downscale to this width (0 keeps the natural size)")
	renderCmd.Flags().BoolVar(&renderNoLabels, "no-labels", false, "Draw outlines only")
	renderCmd.Flags().StringVar(&renderHighlight, "highlight", "", "Region id to draw with a heavier outline")
}
