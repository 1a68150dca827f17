package apns

// Configuration binds an environment to a (normally validated) identity.
// It is read-only once built.
type Configuration struct {
	environment      Environment
	identity         *Identity
	useAlternatePort bool
	validate         bool
}

// ConfigOption customises NewConfiguration.
type ConfigOption func(*Configuration)

// WithAlternatePort routes the connection through port 2197 instead of 443.
func WithAlternatePort() ConfigOption {
	return func(c *Configuration) { c.useAlternatePort = true }
}

// SkipIdentityValidation accepts the identity as-is. The caller owns the risk of
// connecting with a certificate Apple will reject.
func SkipIdentityValidation() ConfigOption {
	return func(c *Configuration) { c.validate = false }
}

// NewConfiguration loads the certificate material and validates it against env.
func NewConfiguration(env Environment, certData []byte, password string, opts ...ConfigOption) (*Configuration, error) {
	identity, err := LoadIdentity(certData, password)
	if err != nil {
		return nil, err
	}
	return NewConfigurationFromIdentity(env, identity, opts...)
}

// NewConfigurationFromIdentity validates an already loaded identity against env.
func NewConfigurationFromIdentity(env Environment, identity *Identity, opts ...ConfigOption) (*Configuration, error) {
	cfg := &Configuration{
		environment: env,
		identity:    identity,
		validate:    true,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.validate {
		if err := ValidateIdentity(identity, env); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (c *Configuration) Environment() Environment { return c.environment }
func (c *Configuration) Identity() *Identity { return c.identity }
func (c *Configuration) UseAlternatePort() bool { return c.useAlternatePort }
func (c *Configuration) ValidatesIdentity() bool { return c.validate }
