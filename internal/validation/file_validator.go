package validation

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "calciumcli/internal/errors"
	"calciumcli/internal/infrastructure"
)

// Recording file extensions accepted as analysis input
var recordingExtensions = map[string]bool{
	".xlsx": true,
	".csv":  true,
}

// FileValidator checks input recordings and output directories before a run
type FileValidator struct {
	maxSize int64
	logger  *slog.Logger
}

// NewFileValidator creates a new file validator. maxSize <= 0 disables the
// size check.
func NewFileValidator(maxSize int64, logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		maxSize: maxSize,
		logger:  infrastructure.WithComponent(logger, "file_validator"),
	}
}

// ValidateRecordingFile checks that path is a readable, non-empty xlsx or
// csv file within the size limit
func (v *FileValidator) ValidateRecordingFile(path string) error {
	if err := v.ValidateRecordingName(path); err != nil {
		return err
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("Input file does not exist",
			slog.String("file", path))
		return apperrors.NewNotFoundError(fmt.Sprintf("input file %s", path))
	}
	if err != nil {
		v.logger.Error("Failed to stat input file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewMalformedInputError("failed to stat input file", err).WithContext("file", path)
	}
	if info.IsDir() {
		v.logger.Error("Input path is a directory, not a file",
			slog.String("path", path))
		return apperrors.NewMalformedInputError(fmt.Sprintf("%s is a directory, not a file", path), nil)
	}
	if err := v.ValidateSize(info.Size()); err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("Input file is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewMalformedInputError("input file is not readable", err).WithContext("file", path)
	}
	file.Close()

	v.logger.Debug("Input file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateRecordingName checks the extension of a recording file name and
// rejects Excel lock files
func (v *FileValidator) ValidateRecordingName(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	if !recordingExtensions[ext] {
		v.logger.Error("Input file has an unsupported extension",
			slog.String("file", name),
			slog.String("extension", ext))
		return apperrors.NewMalformedInputError(
			fmt.Sprintf("file %s is not a recording (expected .xlsx or .csv, got %q)", name, ext), nil)
	}

	if strings.HasPrefix(filepath.Base(name), "~$") {
		v.logger.Warn("Rejecting temporary Excel file",
			slog.String("file", name))
		return apperrors.NewMalformedInputError(fmt.Sprintf("file %s is a temporary Excel file", name), nil)
	}
	return nil
}

// ValidateSize checks a file size against the configured limit
func (v *FileValidator) ValidateSize(size int64) error {
	if size == 0 {
		return apperrors.NewMalformedInputError("input file is empty", nil)
	}
	if v.maxSize > 0 && size > v.maxSize {
		v.logger.Error("Input file exceeds size limit",
			slog.Int64("size", size),
			slog.Int64("max_size", v.maxSize))
		return apperrors.NewMalformedInputError(
			fmt.Sprintf("input file is %d bytes, limit is %d", size, v.maxSize), nil)
	}
	return nil
}

// SaveUpload copies an uploaded recording into dir under its base name,
// enforcing the size limit while copying. It returns the saved path.
func (v *FileValidator) SaveUpload(dir, name string, r io.Reader) (string, error) {
	base := filepath.Base(filepath.Clean("/" + name))
	if err := v.ValidateRecordingName(base); err != nil {
		return "", err
	}
	if err := v.ValidateOutputDirectory(dir); err != nil {
		return "", err
	}

	path := filepath.Join(dir, base)
	file, err := os.Create(path)
	if err != nil {
		return "", apperrors.NewStorageError("failed to create upload file", err).WithContext("file", path)
	}
	defer file.Close()

	src := r
	if v.maxSize > 0 {
		src = io.LimitReader(r, v.maxSize+1)
	}
	n, err := io.Copy(file, src)
	if err != nil {
		return "", apperrors.NewStorageError("failed to store upload", err).WithContext("file", path)
	}
	if err := v.ValidateSize(n); err != nil {
		os.Remove(path)
		return "", err
	}

	v.logger.Info("Upload stored",
		slog.String("file", path),
		slog.Int64("size", n))
	return path, nil
}

// ValidateOutputDirectory ensures the output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	// Verify it's writable by creating a test file
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}
