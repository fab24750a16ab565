package configuration

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/maps"
	"github.com/spf13/pflag"
)

// lowerPosflag implements a pflag command line provider with lower cased keys.
type lowerPosflag struct {
	delim   string
	flagSet *pflag.FlagSet
	ko      *koanf.Koanf
}

// lowerPosflagProvider returns a command line flags provider that returns a
// nested map[string]interface{} where the nesting hierarchy of keys is defined
// by delim.
//
// It takes the Koanf instance to check whether the flags defined have been set
// from other providers, for instance a config file. If they have not, the
// default values of the flags are merged. If they have, only values that were
// explicitly set in the command line are merged.
func lowerPosflagProvider(f *pflag.FlagSet, delim string, ko *koanf.Koanf) *lowerPosflag {
	return &lowerPosflag{
		flagSet: f,
		delim:   delim,
		ko:      ko,
	}
}

// Read reads the flag variables and returns a nested config map.
func (p *lowerPosflag) Read() (map[string]interface{}, error) {
	mp := make(map[string]interface{})
	p.flagSet.VisitAll(func(f *pflag.Flag) {
		// if no value was explicitly set in the command line,
		// check whether the default value should be used
		if !f.Changed && p.ko.Exists(strings.ToLower(f.Name)) {
			return
		}

		var v interface{}
		switch f.Value.Type() {
		case "int":
			i, _ := p.flagSet.GetInt(f.Name)
			v = int64(i)
		case "int64":
			v, _ = p.flagSet.GetInt64(f.Name)
		case "float64":
			v, _ = p.flagSet.GetFloat64(f.Name)
		case "bool":
			v, _ = p.flagSet.GetBool(f.Name)
		case "duration":
			v, _ = p.flagSet.GetDuration(f.Name)
		case "stringSlice":
			v, _ = p.flagSet.GetStringSlice(f.Name)
		default:
			v = f.Value.String()
		}

		mp[strings.ToLower(f.Name)] = v
	})

	return maps.Unflatten(mp, p.delim), nil
}

// ReadBytes is not supported by the pflag provider.
func (p *lowerPosflag) ReadBytes() ([]byte, error) {
	return nil, errors.New("pflag provider does not support this method")
}

// Watch is not supported by the pflag provider.
func (p *lowerPosflag) Watch(cb func(event interface{}, err error)) error {
	return errors.New("pflag provider does not support this method")
}
