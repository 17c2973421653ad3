package auth

import "github.com/redmonkez12/go-auth-flow/internal/config"

// NewTokenCodec builds the codec selected by cfg.TokenFormat.
func NewTokenCodec(cfg config.AuthConfig, opts ...CodecOption) (TokenCodec, error) {
	if cfg.TokenFormat == config.TokenFormatJWT {
		codec, err := NewJWTCodec(cfg.JWTSecret, opts...)
		if err != nil {
			return nil, err
		}
		return codec, nil
	}

	codec, err := NewPasetoCodec(cfg.PasetoKey, opts...)
	if err != nil {
		return nil, err
	}
	return codec, nil
}
