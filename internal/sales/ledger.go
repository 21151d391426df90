package sales

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"ticket-backend/internal/lock"
	"ticket-backend/internal/logger"
	"ticket-backend/internal/metrics"
	"ticket-backend/internal/models"
	"ticket-backend/internal/utils"

	"github.com/cenkalti/backoff/v4"
)

// ErrLedgerWrite marks a sale that could not be persisted.
var ErrLedgerWrite = errors.New("ledger write failed")

// Ledger is the append-only store of sale records.
type Ledger interface {
	Append(ctx context.Context, sale *models.SaleRecord) error
	HasReference(ctx context.Context, reference string) (bool, error)
}

// FileLedger keeps every sale in one JSON array file. Appends are serialized
// by an in-process mutex and, when Locker is set, by a shared lock so that
// several processes can write the same file.
type FileLedger struct {
	path    string
	mu      sync.Mutex
	Locker  lock.Locker
	LockTTL time.Duration
	// LockWait bounds how long an append waits for the shared lock.
	LockWait time.Duration
	Logger   *logger.Logger
	Now      func() time.Time
	owner    string
}

func NewFileLedger(path string, log *logger.Logger) *FileLedger {
	return &FileLedger{
		path:     path,
		LockTTL:  30 * time.Second,
		LockWait: 10 * time.Second,
		Logger:   log,
		Now:      time.Now,
		owner:    utils.GenerateSaleID(),
	}
}

func (l *FileLedger) Path() string {
	return l.path
}

// Append stamps sale with its timestamp (and a sale id if missing) and adds it
// to the end of the ledger. The file is replaced atomically via rename.
func (l *FileLedger) Append(ctx context.Context, sale *models.SaleRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	release, err := l.acquireShared(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerWrite, err)
	}
	defer release()

	records := l.load()

	if sale.SaleID == "" {
		sale.SaleID = utils.GenerateSaleID()
	}
	sale.Timestamp = l.Now()
	records = append(records, *sale)

	if err := l.write(records); err != nil {
		l.Logger.Error("LEDGER", fmt.Sprintf("Failed to write ledger %s: %v", l.path, err))
		return fmt.Errorf("%w: %v", ErrLedgerWrite, err)
	}

	l.Logger.LogSale("RECORDED", sale.PaymentReference, fmt.Sprintf("sale %s with %d ticket(s), ledger size %d", sale.SaleID, sale.Quantity, len(records)))
	return nil
}

// HasReference reports whether a sale for reference is already recorded.
func (l *FileLedger) HasReference(_ context.Context, reference string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, r := range l.load() {
		if r.PaymentReference == reference {
			return true, nil
		}
	}
	return false, nil
}

// Sales returns a snapshot of the ledger in append order.
func (l *FileLedger) Sales() []models.SaleRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load()
}

// load never fails: a missing file is an empty ledger, and so is a corrupt
// one, so that new sales keep flowing. Corruption is reported as a warning.
func (l *FileLedger) load() []models.SaleRecord {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		l.Logger.Info("LEDGER", fmt.Sprintf("Ledger %s not found, starting empty", l.path))
		return nil
	}
	if err != nil {
		l.Logger.Warn("LEDGER", fmt.Sprintf("Ledger %s unreadable, starting fresh: %v", l.path, err))
		metrics.LedgerFallbacks.Inc()
		return nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	var records []models.SaleRecord
	if err := json.Unmarshal(data, &records); err != nil {
		l.Logger.Warn("LEDGER", fmt.Sprintf("Ledger %s is corrupt, starting fresh: %v", l.path, err))
		metrics.LedgerFallbacks.Inc()
		return nil
	}
	return records
}

func (l *FileLedger) write(records []models.SaleRecord) error {
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	dir := filepath.Dir(l.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(l.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create ledger temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write ledger temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync ledger temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close ledger temp file: %w", err)
	}

	if err := os.Rename(tmpName, l.path); err != nil {
		if rmErr := os.Remove(tmpName); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return errors.Join(
				fmt.Errorf("commit ledger: %w", err),
				fmt.Errorf("remove ledger temp file %s: %w", tmpName, rmErr),
			)
		}
		return fmt.Errorf("commit ledger: %w", err)
	}
	return nil
}

func (l *FileLedger) acquireShared(ctx context.Context) (func(), error) {
	if l.Locker == nil {
		return func() {}, nil
	}

	key := lock.LedgerKey(filepath.Base(l.path))
	waitCtx, cancel := context.WithTimeout(ctx, l.LockWait)
	defer cancel()

	op := func() error {
		ok, err := l.Locker.Acquire(waitCtx, key, l.owner, l.LockTTL)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return errors.New("ledger lock busy")
		}
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(backoff.NewConstantBackOff(50*time.Millisecond), waitCtx)); err != nil {
		return nil, fmt.Errorf("acquire ledger lock: %w", err)
	}

	return func() {
		if err := l.Locker.Release(context.Background(), key, l.owner); err != nil {
			l.Logger.Warn("LEDGER", fmt.Sprintf("Failed to release ledger lock: %v", err))
		}
	}, nil
}
