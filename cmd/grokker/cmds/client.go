package cmds

import (
	"github.com/go-go-golems/grokker/pkg/steps/ai/grok"
	"github.com/go-go-golems/grokker/pkg/steps/ai/grok/api"
	settings "github.com/go-go-golems/grokker/pkg/steps/ai/settings/grok"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// loadSettings layers the config file, GROKKER_* variables and flags over
// the embedded defaults.
func loadSettings(v *viper.Viper) (*settings.Settings, error) {
	s, err := settings.NewSettings()
	if err != nil {
		return nil, err
	}
	s.UpdateFromViper(v)
	return s, nil
}

func newClient(v *viper.Viper) (*grok.Client, error) {
	s, err := loadSettings(v)
	if err != nil {
		return nil, err
	}
	return grok.NewClientFromSettings(s)
}

func httpTransport(c *grok.Client) (*api.Client, error) {
	ac, ok := c.Transport().(*api.Client)
	if !ok {
		return nil, errors.New("client does not use the HTTP transport")
	}
	return ac, nil
}
