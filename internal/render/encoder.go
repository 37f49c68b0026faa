package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// EncodeJob is one conversion of a VRT into the output format.
type EncodeJob struct {
	Driver  string
	Source  string
	Output  string
	Options []Option
}

// Args returns the gdal_translate arguments of the job.
func (j *EncodeJob) Args() []string {
	args := []string{"-q", "-of", j.Driver}
	for _, o := range j.Options {
		args = append(args, "-co", o.String())
	}
	return append(args, j.Source, j.Output)
}

// Encoder creates the output files of a job and returns their paths, the
// main output first.
type Encoder interface {
	Encode(ctx context.Context, job *EncodeJob) ([]string, error)
}

// GDALTranslate encodes by running the gdal_translate executable.
type GDALTranslate struct {
	Path string
}

// NewGDALTranslate returns an encoder using the given executable, or
// gdal_translate from PATH.
func NewGDALTranslate(path string) *GDALTranslate {
	if path == "" {
		path = "gdal_translate"
	}
	return &GDALTranslate{Path: path}
}

func (g *GDALTranslate) Encode(ctx context.Context, job *EncodeJob) ([]string, error) {
	args := job.Args()
	slog.Debug("running encoder", "command", g.Path, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, g.Path, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(job.Output)
		return nil, fmt.Errorf("%s failed: %w: %s", g.Path, err, strings.TrimSpace(string(output)))
	}

	files := []string{job.Output}
	// auxiliary metadata written next to formats without native support
	if aux := job.Output + ".aux.xml"; fileExists(aux) {
		files = append(files, aux)
	}
	return files, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
