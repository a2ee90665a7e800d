package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kdpb/inject"
	"github.com/kdpb/inject/internal/docproc"
)

const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "DPB_"
	// EnvDelimiter separates a section from its field.
	EnvDelimiter = "__"
	// ConfigFileEnv names an optional YAML file to load.
	ConfigFileEnv = "DPB_CONFIG_FILE"
)

var durationType = reflect.TypeOf(time.Duration(0))

func init() {
	inject.Register(NewSettings, inject.Tags(docproc.Tag))
}

// NewSettings loads settings from the working directory and the process
// environment.
func NewSettings() (*Settings, error) {
	return Loader{
		ConfigFile: os.Getenv(ConfigFileEnv),
		EnvFile:    ".env",
		LookupEnv:  os.LookupEnv,
	}.Load()
}

// Loader reads Settings from its sources.
type Loader struct {
	// ConfigFile is an optional YAML file. Empty skips it.
	ConfigFile string
	// EnvFile is an optional dotenv file. A missing file is ignored.
	EnvFile string
	// LookupEnv reads the process environment. Nil skips it.
	LookupEnv func(string) (string, bool)
}

// Load builds and validates the settings.
func (l Loader) Load() (*Settings, error) {
	s := Default()

	if l.ConfigFile != "" {
		data, err := os.ReadFile(l.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("settings: read %s: %w", l.ConfigFile, err)
		}
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("settings: parse %s: %w", l.ConfigFile, err)
		}
	}

	dotenv := map[string]string{}
	if l.EnvFile != "" {
		values, err := godotenv.Read(l.EnvFile)
		switch {
		case err == nil:
			dotenv = values
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("settings: read %s: %w", l.EnvFile, err)
		}
	}

	lookup := func(name string) (string, bool) {
		if l.LookupEnv != nil {
			if v, ok := l.LookupEnv(name); ok {
				return v, true
			}
		}
		v, ok := dotenv[name]
		return v, ok
	}

	if err := applyEnv(reflect.ValueOf(s).Elem(), EnvPrefix, lookup); err != nil {
		return nil, err
	}

	if err := Validate(s); err != nil {
		return nil, err
	}

	return s, nil
}

// Validate checks s against its validation tags.
func Validate(s *Settings) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("settings: invalid: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("settings: validate: %w", err)
	}
	return nil
}

// applyEnv overrides the fields of v from the environment. Nested structs
// extend the variable name with EnvDelimiter.
func applyEnv(v reflect.Value, prefix string, lookup func(string) (string, bool)) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name := strings.ToUpper(yamlName(field))
		fv := v.Field(i)

		if fv.Kind() == reflect.Struct && field.Type != durationType {
			if err := applyEnv(fv, prefix+name+EnvDelimiter, lookup); err != nil {
				return err
			}
			continue
		}

		env := prefix + name
		raw, ok := lookup(env)
		if !ok {
			continue
		}

		if err := setValue(fv, raw); err != nil {
			return fmt.Errorf("settings: %s: %w", env, err)
		}
	}

	return nil
}

func yamlName(f reflect.StructField) string {
	tag := f.Tag.Get("yaml")
	if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
		return name
	}
	return strings.ToLower(f.Name)
}

func setValue(v reflect.Value, raw string) error {
	if v.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		v.SetInt(int64(d))
		return nil
	}

	switch v.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetFloat(f)
	default:
		return fmt.Errorf("unsupported kind %s", v.Kind())
	}
	return nil
}
