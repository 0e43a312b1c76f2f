package localmedia

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/blueprint-backend/internal/logger"
	"github.com/yungbote/blueprint-backend/internal/pkg/ctxutil"
)

// PDFTools wraps the poppler-utils binaries used for local PDF processing:
//   - pdfinfo for page counts
//   - pdftotext for the embedded text layer
//   - pdftoppm for rasterizing pages ahead of OCR
type PDFTools interface {
	AssertReady(ctx context.Context) error
	WriteTempFile(ctx context.Context, data []byte, suffix string) (string, func(), error)
	CountPages(ctx context.Context, pdfPath string) (int, error)
	ExtractPageText(ctx context.Context, pdfPath string, page int) (string, error)
	RenderPage(ctx context.Context, pdfPath string, outDir string, page int, opts RenderOptions) (string, error)
}

type RenderOptions struct {
	DPI    int
	Format string // "png" (default) or "jpeg"
}

type tools struct {
	log *logger.Logger

	pdfinfoPath   string
	pdftotextPath string
	pdftoppmPath  string

	workRoot       string
	defaultTimeout time.Duration
}

func New(log *logger.Logger) PDFTools {
	return &tools{
		log:            log.With("service", "PDFTools"),
		pdfinfoPath:    "pdfinfo",
		pdftotextPath:  "pdftotext",
		pdftoppmPath:   "pdftoppm",
		workRoot:       filepath.Join(os.TempDir(), "blueprint_media"),
		defaultTimeout: 2 * time.Minute,
	}
}

func (m *tools) AssertReady(ctx context.Context) error {
	ctx, cancel := ctxutil.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for _, bin := range []string{m.pdfinfoPath, m.pdftotextPath, m.pdftoppmPath} {
		if err := m.assertBinary(ctx, bin); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(m.workRoot, 0o755); err != nil {
		return fmt.Errorf("create workRoot: %w", err)
	}
	return nil
}

func (m *tools) assertBinary(_ context.Context, name string) error {
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("missing required binary %q in PATH: %w", name, err)
	}
	return nil
}

func (m *tools) WriteTempFile(_ context.Context, data []byte, suffix string) (string, func(), error) {
	if err := os.MkdirAll(m.workRoot, 0o755); err != nil {
		return "", func() {}, fmt.Errorf("mkdir workRoot: %w", err)
	}
	h := sha256.Sum256(data)
	base := hex.EncodeToString(h[:])[:16]
	if suffix != "" && !strings.HasPrefix(suffix, ".") {
		suffix = "." + suffix
	}
	path := filepath.Join(m.workRoot, fmt.Sprintf("%s%s", base, suffix))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", func() {}, fmt.Errorf("write temp file: %w", err)
	}
	cleanup := func() { _ = os.Remove(path) }
	return path, cleanup, nil
}

func (m *tools) CountPages(ctx context.Context, pdfPath string) (int, error) {
	if pdfPath == "" {
		return 0, fmt.Errorf("pdfPath required")
	}
	if _, err := exec.LookPath(m.pdfinfoPath); err != nil {
		return 0, fmt.Errorf("pdfinfo not found in PATH: %w", err)
	}

	ctx, cancel := ctxutil.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, m.pdfinfoPath, pdfPath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("pdfinfo failed: %w; out=%s", err, string(out))
	}

	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "Pages:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		n, err := strconv.Atoi(fields[len(fields)-1])
		if err != nil || n <= 0 {
			continue
		}
		return n, nil
	}

	return 0, fmt.Errorf("pdfinfo output missing Pages field")
}

// ExtractPageText returns the embedded text layer for a single page. An empty
// string with nil error means the page simply has no text layer (a scan).
func (m *tools) ExtractPageText(ctx context.Context, pdfPath string, page int) (string, error) {
	if pdfPath == "" {
		return "", fmt.Errorf("pdfPath required")
	}
	if page <= 0 {
		return "", fmt.Errorf("page must be >= 1")
	}

	ctx, cancel := ctxutil.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	pg := strconv.Itoa(page)
	// "-" writes to stdout; -layout preserves the column layout schedule
	// tables rely on.
	cmd := exec.CommandContext(ctx, m.pdftotextPath, "-layout", "-f", pg, "-l", pg, pdfPath, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext failed: %w", err)
	}
	return string(out), nil
}

func (m *tools) RenderPage(ctx context.Context, pdfPath string, outDir string, page int, opts RenderOptions) (string, error) {
	if pdfPath == "" {
		return "", fmt.Errorf("pdfPath required")
	}
	if outDir == "" {
		return "", fmt.Errorf("outDir required")
	}
	if page <= 0 {
		return "", fmt.Errorf("page must be >= 1")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir outDir: %w", err)
	}

	dpi := opts.DPI
	if dpi <= 0 {
		dpi = 200
	}
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "png"
	}
	if format != "png" && format != "jpeg" && format != "jpg" {
		return "", fmt.Errorf("unsupported render format: %s", format)
	}

	ctx, cancel := ctxutil.WithTimeout(ctx, m.defaultTimeout)
	defer cancel()

	prefix := filepath.Join(outDir, fmt.Sprintf("page_%04d", page))
	args := []string{"-r", strconv.Itoa(dpi)}
	if format == "png" {
		args = append(args, "-png")
	} else {
		args = append(args, "-jpeg")
	}
	args = append(args, "-f", strconv.Itoa(page), "-l", strconv.Itoa(page), pdfPath, prefix)

	cmd := exec.CommandContext(ctx, m.pdftoppmPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("pdftoppm failed: %w; out=%s", err, string(out))
	}

	pattern := fmt.Sprintf("^page_%04d-\\d+\\.(png|jpe?g)$", page)
	paths, err := globSorted(outDir, pattern)
	if err != nil || len(paths) == 0 {
		paths2, _ := globSorted(outDir, ".*\\.(png|jpe?g)$")
		if len(paths2) == 0 {
			return "", fmt.Errorf("no images produced by pdftoppm; out=%s", string(out))
		}
		return paths2[0], nil
	}
	return paths[0], nil
}

func globSorted(dir, pattern string) ([]string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if re.MatchString(e.Name()) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
