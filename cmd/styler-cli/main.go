// Package main provides an operator CLI for the image styler.
//
// It talks directly to blob storage and the transformation API using the
// same environment configuration as the function host — no HTTP hop, no
// rate limit. Useful for smoke-testing a deployment and for one-off batch
// runs.
//
// Examples:
//
//	styler-cli list --container photos
//	styler-cli style --source-folder uploads --output-folder results
//	styler-cli styles
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kwarren/image-styler/internal/blobstore"
	"github.com/kwarren/image-styler/internal/funcboot"
	"github.com/kwarren/image-styler/internal/logging"
	"github.com/kwarren/image-styler/internal/pipeline"
	"github.com/kwarren/image-styler/internal/styles"
)

// CLI flags
var (
	containerFlag    string
	sourceFolderFlag string
	outputFolderFlag string
)

var rootCmd = &cobra.Command{
	Use:   "styler-cli",
	Short: "Operator tools for the image styler",
	Long: `Styler CLI lists blob containers and runs the batch styling pipeline
directly against storage, bypassing the HTTP functions.

Connection configuration matches the function host: the blob gateway reads
TARGET_STORAGE_CONNECTION_STRING (falling back to AzureWebJobsStorage), and
the transformation API reads AZURE_ENDPOINT_URL and AZURE_API_KEY.`,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List blob names in a container",
	Run:   runList,
}

var styleCmd = &cobra.Command{
	Use:   "style",
	Short: "Back up and restyle every image in a source folder",
	Run:   runStyle,
}

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "Print the style catalog",
	Run:   runStyles,
}

func init() {
	listCmd.Flags().StringVarP(&containerFlag, "container", "c", "", `Blob container (default "`+blobstore.DefaultContainer+`")`)

	styleCmd.Flags().StringVarP(&containerFlag, "container", "c", "", `Blob container (default "`+blobstore.DefaultContainer+`")`)
	styleCmd.Flags().StringVar(&sourceFolderFlag, "source-folder", pipeline.DefaultSourceFolder, "Folder holding the source images")
	styleCmd.Flags().StringVar(&outputFolderFlag, "output-folder", pipeline.DefaultOutputFolder, "Folder receiving backups and styled copies")

	rootCmd.AddCommand(listCmd, styleCmd, stylesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runList(cmd *cobra.Command, args []string) {
	funcboot.LoadEnv()
	logging.Init()

	gateway := funcboot.InitStorage()
	container := blobstore.ContainerOrDefault(containerFlag)

	names, err := gateway.ListContainer(context.Background(), container)
	if err != nil {
		log.Fatal().Err(err).Str("container", container).Msg("Failed to list container")
	}
	for _, name := range names {
		fmt.Println(name)
	}
}

func runStyle(cmd *cobra.Command, args []string) {
	start := time.Now()
	funcboot.LoadEnv()
	logging.Init()

	gateway := funcboot.InitStorage()
	styleClient := funcboot.InitTransform()

	// Keep a nil client as a nil interface so the pipeline records the
	// unconfigured state instead of panicking on a typed nil.
	var tf pipeline.Transformer
	if styleClient != nil {
		tf = styleClient
	}

	req := pipeline.Request{
		Container:    blobstore.ContainerOrDefault(containerFlag),
		SourceFolder: strings.Trim(sourceFolderFlag, "/"),
		OutputFolder: strings.Trim(outputFolderFlag, "/"),
	}

	report, err := pipeline.New(gateway, tf).Run(context.Background(), req)
	if err != nil {
		log.Fatal().Err(err).Str("container", req.Container).Msg("Style batch failed")
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to render report")
	}
	fmt.Println(string(out))

	log.Info().
		Int("processed", len(report.Processed)).
		Int("skipped", len(report.Skipped)).
		Int("failed", len(report.Failed)).
		Dur("elapsed", time.Since(start)).
		Msg("Batch finished")
}

func runStyles(cmd *cobra.Command, args []string) {
	for _, s := range styles.All() {
		fmt.Printf("%s\n    %s\n", s.Name, s.Prompt)
	}
}
