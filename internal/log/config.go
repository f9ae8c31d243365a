package log

// Config configures the process logger.
type Config struct {
	Level   string          `mapstructure:"level" yaml:"level"`     // trace / debug / info / warn / error
	Format  string          `mapstructure:"format" yaml:"format"`   // pattern / json / text
	Pattern string          `mapstructure:"pattern" yaml:"pattern"` // used by the pattern format
	Time    string          `mapstructure:"time" yaml:"time"`       // Go time layout
	File    FileAppenderOpt `mapstructure:"file" yaml:"file"`
}

const (
	DefaultPattern = "%time [%level] %caller: %msg %field\n"
	DefaultTime    = "2006-01-02 15:04:05.000"
)

// DefaultConfig is used until Init is called.
func DefaultConfig() Config {
	return Config{
		Level:   "info",
		Format:  "pattern",
		Pattern: DefaultPattern,
		Time:    DefaultTime,
	}
}
