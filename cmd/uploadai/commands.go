package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/nguyentantai21042004/upload-ai/internal/api"
	"github.com/nguyentantai21042004/upload-ai/internal/completion"
	"github.com/nguyentantai21042004/upload-ai/internal/config"
	"github.com/nguyentantai21042004/upload-ai/internal/converter"
	"github.com/nguyentantai21042004/upload-ai/internal/export"
	"github.com/nguyentantai21042004/upload-ai/internal/ingest"
	"github.com/nguyentantai21042004/upload-ai/internal/logger"
	"github.com/nguyentantai21042004/upload-ai/internal/models"
	"github.com/nguyentantai21042004/upload-ai/internal/processor"
	"github.com/nguyentantai21042004/upload-ai/internal/watcher"
)

func runIngest(ctx context.Context, cfg *config.Config, client api.Client, conv converter.Converter, log logger.Logger, args []string) error {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	prompt := fs.String("prompt", cfg.Ingest.DefaultPrompt, "Transcription keywords, comma separated")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("ingest needs exactly one video path")
	}
	path := fs.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read video: %w", err)
	}
	video := models.NewVideoAsset(filepath.Base(path), data)
	if !video.IsVideo() {
		return fmt.Errorf("%s is not a video (%s)", video.Name, video.MediaType)
	}

	orch := ingest.New(conv, client, log)
	orch.Subscribe(func(s ingest.State) {
		fmt.Fprintf(os.Stderr, "[status] %s\n", s.Stage.Status())
	})
	orch.SubscribeProgress(func(pct int) {
		fmt.Fprintf(os.Stderr, "\r[convert] %3d%%", pct)
		if pct == 100 {
			fmt.Fprintln(os.Stderr)
		}
	})
	orch.Select(video)

	// stage errors already name their kind
	if err := orch.Submit(ctx, *prompt); err != nil {
		return err
	}

	fmt.Println(orch.State().VideoID)
	return nil
}

func runPrompts(ctx context.Context, client api.Client) error {
	prompts, err := client.ListPrompts(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE")
	for _, p := range prompts {
		fmt.Fprintf(tw, "%s\t%s\n", p.ID, p.Title)
	}
	return tw.Flush()
}

func runComplete(ctx context.Context, cfg *config.Config, client api.Client, log logger.Logger, args []string) error {
	fs := flag.NewFlagSet("complete", flag.ExitOnError)
	videoID := fs.String("video", "", "Video id returned by ingest")
	templateID := fs.String("template", "", "Prompt template id (see prompts)")
	promptText := fs.String("prompt", "", "Prompt text; {transcription} is replaced by the backend")
	temperature := fs.Float64("temperature", cfg.Completion.Temperature, "Sampling temperature in [0,1]")
	out := fs.String("out", "", "Export the result to this file (.docx or text)")
	fs.Parse(args)

	prompt, title := *promptText, "Completion"
	if *templateID != "" {
		tmpl, err := findTemplate(ctx, client, *templateID)
		if err != nil {
			return err
		}
		prompt, title = tmpl.Template, tmpl.Title
	}

	consumer := completion.New(client, cfg.Completion, log)
	consumer.Subscribe(func(u completion.Update) {
		if u.Fragment != "" {
			fmt.Fprint(os.Stdout, u.Fragment)
		}
	})

	err := consumer.Request(ctx, models.CompletionRequest{
		Prompt:      prompt,
		VideoID:     *videoID,
		Temperature: *temperature,
	})
	fmt.Fprintln(os.Stdout)
	if err != nil {
		return err
	}

	if *out == "" {
		return nil
	}
	text, err := consumer.Copy()
	if err != nil {
		return err
	}
	if err := export.ToFile(title, text, *out); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	log.Info(ctx, "Copied to %s", *out)
	return nil
}

func findTemplate(ctx context.Context, client api.Client, id string) (models.PromptTemplate, error) {
	prompts, err := client.ListPrompts(ctx)
	if err != nil {
		return models.PromptTemplate{}, err
	}
	for _, p := range prompts {
		if p.ID == id {
			return p, nil
		}
	}
	return models.PromptTemplate{}, fmt.Errorf("unknown prompt template %q", id)
}

func runWatch(ctx context.Context, cfg *config.Config, client api.Client, conv converter.Converter, log logger.Logger) error {
	for _, dir := range []string{cfg.Paths.Input, cfg.Paths.Output} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	proc := processor.New(cfg, conv, client, log)
	w, err := watcher.New(cfg.Paths.Input, proc.Process, log, cfg.Performance.MaxConcurrent)
	if err != nil {
		return err
	}
	defer w.Stop()

	log.Info(ctx, "========================================")
	log.Info(ctx, "upload-ai watcher is ready!")
	log.Info(ctx, "Monitoring: %s", cfg.Paths.Input)
	log.Info(ctx, "Output: %s", cfg.Paths.Output)
	log.Info(ctx, "Backend: %s", cfg.API.BaseURL)
	log.Info(ctx, "FFmpeg: %s codec, %s bitrate", cfg.FFmpeg.AudioCodec, cfg.FFmpeg.AudioBitrate)
	log.Info(ctx, "Press Ctrl+C to stop")
	log.Info(ctx, "========================================")

	err = w.Start(ctx)
	log.Info(ctx, "upload-ai watcher stopped")
	return err
}
