package cnx

// Options configures the traversal limits and logging of a Composer.
type Options struct {
	// Limits to keep pathological inputs bounded
	MaxDepth      int // Max nesting depth before values are embedded by reference (default: 1000)
	CycleUnroll   int // Times one source object may be expanded on a single path (default: 2)
	MaxThunkDepth int // Max chained thunk invocations before giving up (default: 64)

	// Logging configuration
	LogLevel string // Log level: "error", "warn", "info", "debug" (default: "warn")
	Logger   Logger // Overrides LogLevel when set
}

// DefaultOptions returns the default configuration.
func DefaultOptions() Options {
	return Options{
		MaxDepth:      1000,
		CycleUnroll:   2,
		MaxThunkDepth: 64,
		LogLevel:      "warn",
	}
}

// Composer runs the merge, clean and serialize engines with a fixed set of
// options. It holds no per-call state and is safe for concurrent use.
type Composer struct {
	opts   Options
	logger Logger
}

// New returns a Composer. Non-positive limits fall back to their defaults.
func New(opts ...Options) *Composer {
	opt := DefaultOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	def := DefaultOptions()
	if opt.MaxDepth <= 0 {
		opt.MaxDepth = def.MaxDepth
	}
	if opt.CycleUnroll <= 0 {
		opt.CycleUnroll = def.CycleUnroll
	}
	if opt.MaxThunkDepth <= 0 {
		opt.MaxThunkDepth = def.MaxThunkDepth
	}

	logger := opt.Logger
	if logger == nil {
		if opt.LogLevel != "" {
			logger = NewLogger(ParseLogLevel(opt.LogLevel), nil)
		} else {
			logger = NewNoopLogger()
		}
	}
	return &Composer{opts: opt, logger: logger}
}

// Options returns the effective options.
func (c *Composer) Options() Options {
	return c.opts
}

var std = New()

// resolve invokes thunks until a non-thunk value appears. A chain longer
// than MaxThunkDepth resolves to Undefined.
func (c *Composer) resolve(v any, acc string) any {
	for i := 0; Classify(v) == KindThunk; i++ {
		if i >= c.opts.MaxThunkDepth {
			c.logger.Warnf("thunk chain exceeded %d invocations, treating as undefined", c.opts.MaxThunkDepth)
			return Undefined
		}
		v = invoke(v, acc)
	}
	return v
}

// ResolveThunk invokes v until it is no longer a thunk.
func ResolveThunk(v any) any {
	return std.resolve(v, "")
}
