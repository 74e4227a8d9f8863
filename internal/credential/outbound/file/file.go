// Package file keeps credential records in a newline-delimited text file.
package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/shandysiswandi/credvault/internal/credential/entity"
	"github.com/shandysiswandi/credvault/internal/pkg/goerror"
	"github.com/shandysiswandi/credvault/internal/pkg/instrument"
	"github.com/shandysiswandi/credvault/internal/pkg/uid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const fileMode fs.FileMode = 0o600

// Options configures a File repository.
type Options struct {
	// Path of the store file.
	Path string
	// LockTimeout bounds how long Lock waits for another holder.
	LockTimeout time.Duration
	// LockStaleAfter lets Lock break a lock file older than this. Zero never breaks.
	LockStaleAfter time.Duration
}

// File is a record repository backed by a single text file.
type File struct {
	path           string
	lockPath       string
	lockTimeout    time.Duration
	lockStaleAfter time.Duration
	uuid           uid.StringID
	ins            instrument.Instrumentation
}

// New returns a File repository. The file is not touched until first use.
func New(opts Options, uuid uid.StringID, ins instrument.Instrumentation) *File {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = 5 * time.Second
	}

	return &File{
		path:           opts.Path,
		lockPath:       opts.Path + ".lock",
		lockTimeout:    opts.LockTimeout,
		lockStaleAfter: opts.LockStaleAfter,
		uuid:           uuid,
		ins:            ins,
	}
}

func (f *File) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	ctx, span := f.ins.Tracer("credential.outbound.file").Start(ctx, name)
	span.SetAttributes(attribute.String("store.path", f.path))
	return ctx, span
}

func (f *File) endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Exists reports whether the store file is present.
func (f *File) Exists(ctx context.Context) (ok bool, err error) {
	_, span := f.startSpan(ctx, "Exists")
	defer func() { f.endSpan(span, err) }()

	_, err = os.Stat(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat store: %w", err)
	}
	return true, nil
}

// ReadAll parses every line of the store. A missing file reads as empty.
func (f *File) ReadAll(ctx context.Context) (res entity.ScanResult, err error) {
	_, span := f.startSpan(ctx, "ReadAll")
	defer func() { f.endSpan(span, err) }()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return entity.ScanResult{}, nil
	}
	if err != nil {
		return entity.ScanResult{}, fmt.Errorf("read store: %w", err)
	}

	res = entity.DecodeLines(data)
	span.SetAttributes(attribute.Int("store.records", len(res.Credentials)), attribute.Int("store.corrupt", res.Corrupt))
	return res, nil
}

// AtomicRewrite replaces the whole store with creds. The new content is
// written to a temp file in the same directory, synced and renamed over the
// store, so readers see either the old or the new file.
func (f *File) AtomicRewrite(ctx context.Context, creds []entity.Credential) (err error) {
	_, span := f.startSpan(ctx, "AtomicRewrite")
	defer func() { f.endSpan(span, err) }()

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp store: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if err = writeAndSync(tmp, entity.EncodeLines(creds)); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp store: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp store: %w", err)
	}
	if err = os.Chmod(tmpName, fileMode); err != nil {
		return fmt.Errorf("chmod temp store: %w", err)
	}
	if err = os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("swap store: %w", err)
	}

	syncDir(dir)
	return nil
}

// Append adds creds to the end of the store in a single write, creating
// the file when needed.
func (f *File) Append(ctx context.Context, creds ...entity.Credential) (err error) {
	_, span := f.startSpan(ctx, "Append")
	defer func() { f.endSpan(span, err) }()

	if len(creds) == 0 {
		return nil
	}
	span.SetAttributes(attribute.Int("store.appended", len(creds)))

	fh, err := os.OpenFile(f.path, os.O_RDWR|os.O_APPEND|os.O_CREATE, fileMode)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if cerr := fh.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close store: %w", cerr)
		}
	}()

	data := entity.EncodeLines(creds)

	missingEOL, err := endsWithoutNewline(fh)
	if err != nil {
		return fmt.Errorf("inspect store: %w", err)
	}
	if missingEOL {
		data = append([]byte{'\n'}, data...)
	}

	if err := writeAndSync(fh, data); err != nil {
		return fmt.Errorf("append store: %w", err)
	}
	return nil
}

// Lock takes the advisory lock file. See lock.go.
func (f *File) Lock(ctx context.Context) (unlock func(), err error) {
	ctx, span := f.startSpan(ctx, "Lock")
	defer func() {
		if errors.Is(err, goerror.ErrLocked) {
			span.SetAttributes(attribute.Bool("lock.timeout", true))
		}
		f.endSpan(span, err)
	}()

	return f.acquire(ctx)
}

func writeAndSync(fh *os.File, data []byte) error {
	if _, err := fh.Write(data); err != nil {
		return err
	}
	return fh.Sync()
}

func endsWithoutNewline(fh *os.File) (bool, error) {
	st, err := fh.Stat()
	if err != nil {
		return false, err
	}
	if st.Size() == 0 {
		return false, nil
	}

	var last [1]byte
	if _, err := fh.ReadAt(last[:], st.Size()-1); err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return last[0] != '\n', nil
}

// syncDir persists the rename on filesystems that need it. Errors are
// ignored; not every platform can fsync a directory.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
