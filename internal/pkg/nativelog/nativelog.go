// Package nativelog builds the process zap logger: console output plus a
// daily rotated file under the log directory.
package nativelog

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	EnvLogDir   = "LOGOFORGE_LOG_DIR"
	filePerm    = 0o644
	dirPerm     = 0o755
	filePrefix  = "logoforge-"
	dayLayout   = "2006-01-02"
	timeEncoder = "2006-01-02 15:04:05.000"
)

// ResolveDir returns $LOGOFORGE_LOG_DIR, else ./logs.
func ResolveDir() string {
	if dir := strings.TrimSpace(os.Getenv(EnvLogDir)); dir != "" {
		return dir
	}
	return filepath.Join(".", "logs")
}

// Filename is the log file for the day of now.
func Filename(now time.Time) string {
	return filePrefix + now.Format(dayLayout) + ".log"
}

// DailyFile is a zapcore.WriteSyncer that switches files at midnight.
type DailyFile struct {
	mu   sync.Mutex
	dir  string
	day  string
	file *os.File
	now  func() time.Time
}

func OpenDailyFile(dir string) (*DailyFile, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, err
	}
	return &DailyFile{dir: dir, now: time.Now}, nil
}

func (d *DailyFile) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.rotate(); err != nil {
		return 0, err
	}
	return d.file.Write(p)
}

// rotate opens today's file when the day changed. Callers hold mu.
func (d *DailyFile) rotate() error {
	day := d.now().Format(dayLayout)
	if d.file != nil && day == d.day {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(d.dir, filePrefix+day+".log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return err
	}
	if d.file != nil {
		_ = d.file.Close()
	}
	d.file, d.day = f, day
	return nil
}

func (d *DailyFile) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	return d.file.Sync()
}

func (d *DailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

// NewZapLogger tees a console encoder to stdout and the daily file in ResolveDir.
// debug lowers the level to Debug.
func NewZapLogger(debug bool) (*zap.Logger, error) {
	file, err := OpenDailyFile(ResolveDir())
	if err != nil {
		return nil, err
	}

	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if debug {
		level.SetLevel(zap.DebugLevel)
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout(timeEncoder)
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stdout), level),
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), file, level),
	)
	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	_ = zap.RedirectStdLog(logger)
	return logger, nil
}
