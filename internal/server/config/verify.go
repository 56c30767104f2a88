package config

import (
	"errors"
	"fmt"
	"net"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yndnr/dirmesh-go/internal/protocol"
	"github.com/yndnr/dirmesh-go/internal/telemetry/logger"
)

var validate = newValidator()

// newValidator reports fields by their koanf key.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Verify validates the configuration with struct tags, then applies the
// rules tags cannot express.
func Verify(cfg *ServerConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return verifyCustomRules(cfg)
}

func verifyCustomRules(cfg *ServerConfig) error {
	if _, err := protocol.ParseCodes(cfg.Server.Protocol.StatusCodes); err != nil {
		return fmt.Errorf("server.protocol.status_codes: %w", err)
	}
	if _, ok := logger.ParseLevel(cfg.Log.Level); !ok {
		return fmt.Errorf("log.level: unknown level %q", cfg.Log.Level)
	}
	if cfg.Server.HTTP.Enabled && samePort(cfg.Server.Protocol.Addr, cfg.Server.HTTP.Addr) {
		return fmt.Errorf("server.http.addr: port conflicts with server.protocol.addr")
	}
	if cfg.Journal.Enabled && cfg.Journal.Dir == "" && cfg.Storage.DataDir == "" {
		return errors.New("journal.dir: required when storage.data_dir is empty")
	}
	return nil
}

// samePort reports whether two listen addresses would collide.
func samePort(a, b string) bool {
	hostA, portA, errA := net.SplitHostPort(a)
	hostB, portB, errB := net.SplitHostPort(b)
	if errA != nil || errB != nil || portA != portB {
		return false
	}
	return hostA == hostB || isWildcard(hostA) || isWildcard(hostB)
}

func isWildcard(host string) bool {
	return host == "" || host == "0.0.0.0" || host == "::"
}

// formatValidationError reports the first failed field by its config key.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		e := verrs[0]
		_, key, _ := strings.Cut(e.Namespace(), ".")
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)", key, e.Tag(), e.Value())
	}
	return err
}
