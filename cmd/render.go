package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ByLCY/quire/binding"
	"github.com/ByLCY/quire/document"
	"github.com/ByLCY/quire/dsl"
	"github.com/ByLCY/quire/job"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/renderer"
	canvasrenderer "github.com/ByLCY/quire/renderer/canvas"
)

type renderOptions struct {
	JobPath  string
	OutDir   string
	AssetDir string
	Debug    string
	DataJSON string
	Plan     bool
}

func newRenderCmd() *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render <job-file>",
		Short: "Render a job file into print-ready PDFs",
		Long: `Render reads a job file, captures every frame image as one page, flows the
story text across the pages and writes the PDF plus every imposed export the job
asks for.

Output and asset directories default to QUIRE_OUT_DIR and QUIRE_ASSET_DIR
(also read from a .env file). Relative frame paths resolve against the asset
directory, or the job file's directory when none is given.`,
		Example: `  # Render a job next to its images
  quire render brochure.quire

  # Write into dist/ and keep the layout for inspection
  quire render brochure.quire --out dist --debug dist/layout.json

  # Bind data for ${data.*} placeholders and show the imposition order
  quire render zine.quire --data '{"edition": 2}' --plan`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.JobPath = args[0]
			if opts.OutDir == "" {
				opts.OutDir = envDefault(envOutDir, "output")
			}
			if opts.AssetDir == "" {
				opts.AssetDir = envDefault(envAssetDir, filepath.Dir(opts.JobPath))
			}
			written, err := runRender(cmd.Context(), opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			for _, path := range written {
				slog.Info("PDF written", "path", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.OutDir, "out", "o", "", "Output directory (default $QUIRE_OUT_DIR or ./output)")
	cmd.Flags().StringVar(&opts.AssetDir, "assets", "", "Base directory for frame images (default $QUIRE_ASSET_DIR or the job file's directory)")
	cmd.Flags().StringVar(&opts.Debug, "debug", "", "Write the page layout as JSON to this path")
	cmd.Flags().StringVar(&opts.DataJSON, "data", "", "JSON data bound to ${data.*} placeholders")
	cmd.Flags().BoolVar(&opts.Plan, "plan", false, "Print the imposition plan of every export as YAML")

	return cmd
}

// runRender 串联解析、逐页采集与输出，返回写出的文件路径。
func runRender(ctx context.Context, opts renderOptions, stdout io.Writer) ([]string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var data any
	if opts.DataJSON != "" {
		if err := json.Unmarshal([]byte(opts.DataJSON), &data); err != nil {
			return nil, fmt.Errorf("解析 data JSON 失败: %w", err)
		}
	}

	j, err := loadJob(opts.JobPath)
	if err != nil {
		return nil, err
	}
	frames, err := j.Frames(opts.AssetDir)
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 && j.Story == nil {
		return nil, fmt.Errorf("作业 %s 没有任何页面来源", j.Name)
	}
	if j.Pages > 0 && len(frames) > j.Pages {
		return nil, fmt.Errorf("作业 %s 有 %d 张帧图片，超过 pages %d", j.Name, len(frames), j.Pages)
	}

	rasterW, rasterH, err := captureRaster(j, frames)
	if err != nil {
		return nil, err
	}

	title := j.Meta.Title
	if title == "" {
		title = j.Name
	}
	vars := binding.DocVars(j.Name, title, j.Pages, data)

	doc, err := document.New(document.Config{
		TrimWidth:    j.TrimWidth,
		TrimHeight:   j.TrimHeight,
		Unit:         j.Unit,
		TotalPages:   j.Pages,
		Filename:     binding.Interpolate(j.Output, vars),
		RasterWidth:  rasterW,
		RasterHeight: rasterH,
		Fonts:        j.Fonts,
	})
	if err != nil {
		return nil, err
	}
	if j.Bleed > 0 {
		if err := doc.ConfigureBleed(j.Bleed, j.Unit); err != nil {
			return nil, err
		}
	}
	switch {
	case j.Marks:
		doc.SetPrintMarksEnabled(true)
	case j.NoMarks:
		doc.SetPrintMarksEnabled(false)
	}

	r := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{BaseDir: opts.AssetDir})
	var story *storyFlow
	if j.Story != nil {
		if story, err = newStoryFlow(j, r, vars); err != nil {
			return nil, err
		}
	}

	var (
		written  []string
		writeErr error
	)
	doc.OnComplete(func(d *document.Document) {
		written, writeErr = writeOutputs(d, j, r, opts, vars, stdout)
	})

	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if doc.State() == document.Complete {
			break
		}
		if j.Pages == 0 && i >= len(frames) && story.remaining() == "" {
			break
		}
		if err := capturePage(doc, frames, i, story); err != nil {
			return nil, err
		}
	}
	if doc.State() == document.Collecting {
		if err := doc.Finish(); err != nil {
			return nil, err
		}
	}
	if writeErr != nil {
		return written, writeErr
	}
	if rest := story.remaining(); rest != "" {
		slog.Warn("story text did not fit", "job", j.Name, "lines", strings.Count(rest, "\n")+1)
	}
	return written, nil
}

func loadJob(path string) (*job.Job, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开作业文件 %s: %w", path, err)
	}
	defer file.Close()

	ast, err := dsl.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("解析作业文件失败: %w", err)
	}
	j, err := job.Load(ast)
	if err != nil {
		return nil, fmt.Errorf("作业 %s: %w", path, err)
	}
	return j, nil
}

// captureRaster 返回采集栅格尺寸：作业中的 raster，否则取第一张帧图片的尺寸。
func captureRaster(j *job.Job, frames []job.Frame) (int, int, error) {
	if j.RasterWidth > 0 && j.RasterHeight > 0 {
		return j.RasterWidth, j.RasterHeight, nil
	}
	if len(frames) == 0 {
		return 0, 0, fmt.Errorf("作业 %s 没有帧图片，需要用 raster W H 指定采集尺寸", j.Name)
	}
	first, err := decodeImage(frames[0].Path)
	if err != nil {
		return 0, 0, err
	}
	b := first.Bounds()
	return b.Dx(), b.Dy(), nil
}

// capturePage 采集第 i 页：帧图片（不足时用空白页）、出血图片与正文。
func capturePage(doc *document.Document, frames []job.Frame, i int, story *storyFlow) error {
	w, h := doc.RasterSize()
	var (
		frame     image.Image
		bleedPath string
	)
	if i < len(frames) {
		img, err := decodeImage(frames[i].Path)
		if err != nil {
			return err
		}
		frame, bleedPath = img, frames[i].Bleed
	}

	if bleedPath != "" {
		buf := doc.BleedBuffer()
		if !buf.Active() {
			slog.Warn("bleed image ignored, document has no bleed", "page", doc.Number(), "path", bleedPath)
		} else {
			img, err := decodeImage(bleedPath)
			if err != nil {
				return err
			}
			buf.Draw(fitRaster(img, w, h), image.Point{})
		}
	}

	if frame == nil {
		frame = blankRaster(w, h)
	} else {
		frame = fitRaster(frame, w, h)
	}

	var texts []layout.TextBox
	if tb, ok := story.next(doc.Number(), doc.TotalPages()); ok {
		texts = append(texts, tb)
	}
	return doc.CaptureFrame(frame, texts...)
}

// writeOutputs 在文档完成时写出主 PDF、调试 JSON 与各拼版导出。
func writeOutputs(doc *document.Document, j *job.Job, r renderer.Renderer, opts renderOptions, vars map[string]any, stdout io.Writer) ([]string, error) {
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}

	result, err := doc.Result(j.Meta)
	if err != nil {
		return nil, err
	}
	if opts.Debug != "" {
		if err := writeDebug(result, opts.Debug); err != nil {
			return nil, err
		}
	}
	path := filepath.Join(opts.OutDir, doc.Filename())
	if err := renderTo(r, result, path); err != nil {
		return nil, err
	}
	written := []string{path}

	for _, exp := range j.Exports {
		imposed, err := doc.Impose(exp.Scheme, j.Meta)
		if err != nil {
			return written, fmt.Errorf("导出 %s 拼版失败: %w", exp.Name, err)
		}
		path := filepath.Join(opts.OutDir, binding.Interpolate(exp.Name, vars))
		if err := renderTo(r, imposed, path); err != nil {
			return written, err
		}
		written = append(written, path)

		if opts.Plan {
			if err := writePlan(stdout, exp.Scheme, len(doc.Pages())); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

func renderTo(r renderer.Renderer, result *layout.Result, path string) error {
	if r == nil {
		return fmt.Errorf("renderer 不能为空")
	}
	pdfBytes, err := r.Render(result)
	if err != nil {
		return fmt.Errorf("渲染 PDF %s 失败: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(path, pdfBytes, 0o644); err != nil {
		return fmt.Errorf("写入 PDF 文件失败: %w", err)
	}
	return nil
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
