package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"nirmana-assistant/internal/app"
	"nirmana-assistant/internal/i18n"
	"nirmana-assistant/internal/service/assistant"
)

var imageOut string

var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Generate or edit images",
}

var imageGenerateCmd = &cobra.Command{
	Use:   "generate <prompt>",
	Short: "Generate a square image from a prompt",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := startApp(cmd.Context(), app.Options{})
		if err != nil {
			return err
		}
		defer s.close()

		lang := s.app.Language()
		fmt.Fprintln(cmd.ErrOrStderr(), i18n.T(lang, i18n.GeneratingMessage))
		img, loc := s.app.Chat.Generate(cmd.Context(), strings.Join(args, " "), lang)
		return reportImage(cmd, img, loc, i18n.T(lang, i18n.ImageGenError))
	},
}

var imageEditCmd = &cobra.Command{
	Use:   "edit <file> <prompt>",
	Short: "Edit an existing image with a prompt",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := readImage(args[0])
		if err != nil {
			return err
		}
		s, err := startApp(cmd.Context(), app.Options{})
		if err != nil {
			return err
		}
		defer s.close()

		lang := s.app.Language()
		fmt.Fprintln(cmd.ErrOrStderr(), i18n.T(lang, i18n.GeneratingMessage))
		img, loc := s.app.Chat.Edit(cmd.Context(), src, strings.Join(args[1:], " "), lang)
		return reportImage(cmd, img, loc, i18n.T(lang, i18n.EditError))
	},
}

func reportImage(cmd *cobra.Command, img *assistant.Image, location, failure string) error {
	if img == nil {
		return errors.New(failure)
	}
	if imageOut != "" {
		if err := os.WriteFile(imageOut, img.Data, 0o644); err != nil {
			return err
		}
		location = imageOut
	}
	if location == "" {
		return errors.New("image was generated but could not be stored")
	}
	fmt.Fprintln(cmd.OutOrStdout(), location)
	return nil
}

func init() {
	imageCmd.PersistentFlags().StringVarP(&imageOut, "out", "o", "", "also write the image to this file")
	imageCmd.AddCommand(imageGenerateCmd, imageEditCmd)
}
