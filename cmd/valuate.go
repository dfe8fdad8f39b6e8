package main

import (
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/gavelworks/appraise/internal/model"
)

var (
	valuateName     string
	valuateCategory string
)

var valuateCmd = &cobra.Command{
	Use:   "valuate [image...]",
	Short: "Run one consensus valuation",
	Long:  "Runs a full valuation for an item described by photos and/or a name hint and prints the consensus result as JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if len(args) == 0 && valuateName == "" {
			return eris.New("provide at least one image path or --name")
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		images := make([]model.Image, 0, len(args))
		for _, path := range args {
			img, err := loadImage(path)
			if err != nil {
				return err
			}
			images = append(images, img)
		}

		result, err := env.Engine.Valuate(ctx, images, valuateName, valuateCategory)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

// loadImage reads an image file and sniffs its MIME type.
func loadImage(path string) (model.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Image{}, eris.Wrapf(err, "read image %s", path)
	}
	return model.Image{
		Data:     data,
		MimeType: http.DetectContentType(data),
	}, nil
}

func init() {
	valuateCmd.Flags().StringVar(&valuateName, "name", "", "item name or description hint")
	valuateCmd.Flags().StringVar(&valuateCategory, "category", "", "category hint (skips keyword detection)")
	rootCmd.AddCommand(valuateCmd)
}
