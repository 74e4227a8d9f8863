package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/credvault/internal/credential/entity"
	"github.com/shandysiswandi/credvault/internal/pkg/goerror"
	"github.com/shandysiswandi/credvault/internal/pkg/storage"
)

// maxSnapshotSize caps how much of a snapshot object a restore reads.
const maxSnapshotSize = 64 << 20

type (
	BackupOutput struct {
		Key     string
		Records int
		Size    int64
	}

	BackupInfo struct {
		Key       string
		Size      int64
		UpdatedAt time.Time
	}

	StoreRestoreInput struct {
		Key string `validate:"required,notblank"`
	}

	StoreRestoreOutput struct {
		Records int
		Dropped int
	}
)

var errSnapshotTooLarge = errors.New("snapshot exceeds size limit")

func (s *Usecase) ensureStorage(ctx context.Context) error {
	if s.storage == nil {
		slog.WarnContext(ctx, "backup requested but object storage is not configured")
		return goerror.NewBusiness("backup storage is not configured", goerror.CodeUnavailable)
	}
	return nil
}

func (s *Usecase) backupPrefix() string {
	p := strings.Trim(s.cfg.GetString("credential.backup.prefix"), "/ ")
	if p == "" {
		p = "snapshots"
	}
	return p
}

// StoreBackup uploads the current store as one object named after the time.
func (s *Usecase) StoreBackup(ctx context.Context) (*BackupOutput, error) {
	ctx, span := s.startSpan(ctx, "StoreBackup")
	defer span.End()

	if err := s.ensureStorage(ctx); err != nil {
		return nil, err
	}

	res, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}

	data := entity.EncodeLines(res.Credentials)
	key := path.Join(s.backupPrefix(), s.clock.Now().UTC().Format("20060102T150405.000000000Z")+".txt")

	info, err := s.storage.PutObject(ctx, key, bytes.NewReader(data), int64(len(data)), storage.PutOptions{
		ContentType: "text/plain; charset=utf-8",
		Metadata:    map[string]string{"records": strconv.Itoa(len(res.Credentials))},
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to upload store snapshot", "key", key, "error", err)
		return nil, goerror.NewStorage(err)
	}

	slog.InfoContext(ctx, "store snapshot uploaded", "key", key, "records", len(res.Credentials))
	return &BackupOutput{Key: info.Key, Records: len(res.Credentials), Size: int64(len(data))}, nil
}

// StoreBackupList lists snapshots, newest first.
func (s *Usecase) StoreBackupList(ctx context.Context) ([]BackupInfo, error) {
	ctx, span := s.startSpan(ctx, "StoreBackupList")
	defer span.End()

	if err := s.ensureStorage(ctx); err != nil {
		return nil, err
	}

	objects, err := s.storage.ListObjects(ctx, s.backupPrefix()+"/")
	if err != nil {
		slog.ErrorContext(ctx, "failed to list store snapshots", "error", err)
		return nil, goerror.NewStorage(err)
	}

	out := lo.Map(objects, func(o storage.ObjectInfo, _ int) BackupInfo {
		return BackupInfo{Key: o.Key, Size: o.Size, UpdatedAt: o.UpdatedAt}
	})
	return lo.Reverse(out), nil
}

// StoreRestore replaces the store with a snapshot. Corrupt snapshot lines
// are dropped the same way housekeeping drops them.
func (s *Usecase) StoreRestore(ctx context.Context, in StoreRestoreInput) (*StoreRestoreOutput, error) {
	ctx, span := s.startSpan(ctx, "StoreRestore")
	defer span.End()

	in.Key = strings.TrimSpace(in.Key)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if err := s.ensureStorage(ctx); err != nil {
		return nil, err
	}

	data, err := s.downloadSnapshot(ctx, in.Key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		slog.WarnContext(ctx, "store snapshot not found", "key", in.Key)
		return nil, goerror.NewBusiness("backup not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to download store snapshot", "key", in.Key, "error", err)
		return nil, goerror.NewStorage(err)
	}

	res := entity.DecodeLines(data)

	err = s.withLock(ctx, func() error {
		if err := s.repoStore.AtomicRewrite(ctx, res.Credentials); err != nil {
			slog.ErrorContext(ctx, "failed to repo rewrite store", "key", in.Key, "error", err)
			return goerror.NewStorage(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.WarnContext(ctx, "store restored from snapshot", "key", in.Key, "records", len(res.Credentials), "dropped", res.Corrupt)
	return &StoreRestoreOutput{Records: len(res.Credentials), Dropped: res.Corrupt}, nil
}

func (s *Usecase) downloadSnapshot(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.storage.GetObject(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxSnapshotSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxSnapshotSize {
		return nil, errSnapshotTooLarge
	}
	return data, nil
}
