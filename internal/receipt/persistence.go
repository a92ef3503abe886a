package receipt

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// Persistence is the durable side channel for issued receipts.
type Persistence interface {
	Save(ctx context.Context, r *domain.Receipt) error
	Load(ctx context.Context, number int64) (*domain.Receipt, error)
}

// FilePersistence writes each receipt twice: a human-readable
// receipt_<N>.txt and a receipt_<N>.gob snapshot that reconstructs the
// exact receipt value. Every file operation is retried up to the
// configured attempt count with a fixed delay; no shared lock is held
// while waiting.
type FilePersistence struct {
	cfg    config.ReceiptConfig
	logger *zap.Logger
}

// NewFilePersistence creates a file-backed receipt persistence rooted at
// the configured output directory.
func NewFilePersistence(cfg config.ReceiptConfig, logger *zap.Logger) *FilePersistence {
	return &FilePersistence{cfg: cfg, logger: logger}
}

// Save persists both representations of a receipt. A directory-creation
// failure aborts only when the configuration marks it fatal; write
// failures surface as PersistenceError once the retry budget is spent.
func (p *FilePersistence) Save(ctx context.Context, r *domain.Receipt) error {
	if err := p.ensureOutputDir(ctx); err != nil {
		return err
	}

	text := renderText(r)
	if err := p.withRetries(ctx, "write", p.textPath(r.Number), func() error {
		return p.writeFileAtomic(p.textPath(r.Number), text)
	}); err != nil {
		return err
	}

	snapshot, err := encodeReceipt(r)
	if err != nil {
		return &domain.PersistenceError{Op: "encode", Path: p.snapshotPath(r.Number), Err: err}
	}
	return p.withRetries(ctx, "write", p.snapshotPath(r.Number), func() error {
		return p.writeFileAtomic(p.snapshotPath(r.Number), snapshot)
	})
}

// Load reads a receipt snapshot back from disk, with the same retry
// policy as Save.
func (p *FilePersistence) Load(ctx context.Context, number int64) (*domain.Receipt, error) {
	path := p.snapshotPath(number)

	var r domain.Receipt
	err := p.withRetries(ctx, "read", path, func() error {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return gob.NewDecoder(bytes.NewReader(data)).Decode(&r)
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (p *FilePersistence) ensureOutputDir(ctx context.Context) error {
	if _, err := os.Stat(p.cfg.OutputDir); err == nil {
		return nil
	}

	if !p.cfg.CreateMissingDirectories {
		if p.cfg.FatalDirCreationFailure {
			return &domain.PersistenceError{
				Op:   "stat",
				Path: p.cfg.OutputDir,
				Err:  fmt.Errorf("output directory does not exist"),
			}
		}
		return nil
	}

	err := p.withRetries(ctx, "mkdir", p.cfg.OutputDir, func() error {
		return os.MkdirAll(p.cfg.OutputDir, 0o755)
	})
	if err != nil && !p.cfg.FatalDirCreationFailure {
		p.logger.Warn("Could not create receipt output directory, continuing best-effort",
			zap.String("dir", p.cfg.OutputDir),
			zap.Error(err),
		)
		return nil
	}
	return err
}

// withRetries runs fn up to MaxRetryAttempts times with a constant delay
// between attempts, wrapping the last failure in a PersistenceError.
func (p *FilePersistence) withRetries(ctx context.Context, op, path string, fn func() error) error {
	backoff := retry.WithMaxRetries(uint64(p.cfg.MaxRetryAttempts-1), retry.NewConstant(p.cfg.RetryDelay))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := fn(); err != nil {
			p.logger.Debug("Receipt file operation failed, may retry",
				zap.String("op", op),
				zap.String("path", path),
				zap.Error(err),
			)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return &domain.PersistenceError{Op: op, Path: path, Err: err}
	}
	return nil
}

// writeFileAtomic writes through a uniquely named temp file and renames
// it into place, so a crashed write never leaves a truncated receipt.
func (p *FilePersistence) writeFileAtomic(path string, data []byte) error {
	tmp := fmt.Sprintf("%s.tmp-%s", path, uuid.NewString())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func (p *FilePersistence) textPath(number int64) string {
	return filepath.Join(p.cfg.OutputDir, fmt.Sprintf("receipt_%d.txt", number))
}

func (p *FilePersistence) snapshotPath(number int64) string {
	return filepath.Join(p.cfg.OutputDir, fmt.Sprintf("receipt_%d.gob", number))
}

func encodeReceipt(r *domain.Receipt) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderText(r *domain.Receipt) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "Receipt #%d\n", r.Number)
	fmt.Fprintf(&b, "Date: %s\n", r.IssuedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Cashier: %s\n", r.Cashier.Name)
	b.WriteString("Items:\n")
	for _, item := range r.Items {
		fmt.Fprintf(&b, "%s x%d - %s\n", item.Name, item.Quantity, item.LineTotal.StringFixed(2))
	}
	fmt.Fprintf(&b, "Total: %s\n", r.Total.StringFixed(2))
	return []byte(b.String())
}
