// Useful routines used in several other packages.
package common

import (
	"math/bits"
	"os"
	"os/user"
	"path"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"moul.io/zapfilter"
)

// Safe sum for uint64.
func AddUint64(a, b uint64) (uint64, error) {
	c, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, errors.New("64-bit unsigned integer overflow")
	}
	return c, nil
}

// Safe subtraction for uint64.
func SubUint64(a, b uint64) (uint64, error) {
	if b > a {
		return 0, errors.New("64-bit unsigned integer underflow")
	}
	return a - b, nil
}

// Percent returns floor(v * pct / 100) without intermediate overflow.
// The pct must not exceed 100.
func Percent(v, pct uint64) uint64 {
	if pct > 100 {
		panic("percentage above 100")
	}
	hi, lo := bits.Mul64(v, pct)
	q, _ := bits.Div64(hi, lo, 100)
	return q
}

func Dup(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func TimeTrack(start time.Time, name string) {
	elapsed := time.Since(start)
	zap.S().Debugf("%s took %s", name, elapsed)
}

func GetStatePath() (string, error) {
	u, err := user.Current()
	if err != nil {
		return "", err
	}
	return path.Join(u.HomeDir, ".hypersonic"), nil
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zap.DebugLevel
	case "ERROR":
		return zap.ErrorLevel
	case "WARN":
		return zap.WarnLevel
	case "FATAL":
		return zap.FatalLevel
	default:
		return zap.InfoLevel
	}
}

func SetupLogger(level string) (*zap.Logger, *zap.SugaredLogger) {
	logger, err := SetupFilteredLogger(level, "")
	if err != nil {
		panic(err) // unreachable, empty rules always parse
	}
	return logger, logger.Sugar()
}

// SetupFilteredLogger builds the global console logger. Non-empty rules are zapfilter rules,
// e.g. "debug:planner info:*", applied on top of the level.
func SetupFilteredLogger(level, rules string) (*zap.Logger, error) {
	al := zap.NewAtomicLevelAt(parseLevel(level))
	ec := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.Lock(os.Stdout), al)
	if rules != "" {
		filter, err := zapfilter.ParseRules(rules)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid log filter %q", rules)
		}
		core = zapfilter.NewFilteringCore(core, filter)
	}
	logger := zap.New(core)
	zap.ReplaceGlobals(logger)
	return logger, nil
}
