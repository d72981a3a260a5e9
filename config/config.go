// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// RoleConfig describes one selectable agent persona. The wake word is
// optional; roles without one cannot be woken by voice while muted.
type RoleConfig struct {
	Role         string
	Instructions string
	WakeWord     string
}

var roleConfigs = map[string]RoleConfig{
	"bored": {
		Role:         "bored",
		Instructions: "You are a bored person who answers very briefly and reluctantly (average 4-8 words).",
		WakeWord:     "agent",
	},
	"friendly": {
		Role:         "friendly",
		Instructions: "You are a friendly, supportive assistant who speaks warmly and encourages the user (average 15-30 words).",
		WakeWord:     "buddy",
	},
	"funny": {
		Role:         "funny",
		Instructions: "You are funny. You tell funny stories and jokes (average 15-30 words).",
		WakeWord:     "funny",
	},
}

// GetRoleConfig resolves a role by name.
func GetRoleConfig(role string) (RoleConfig, error) {
	cfg, ok := roleConfigs[role]
	if !ok {
		return RoleConfig{}, fmt.Errorf("config: unknown agent role %q", role)
	}
	return cfg, nil
}

// SpeechKitConfig is the credential/tuning block for both speech back-ends.
type SpeechKitConfig struct {
	FolderID   string  `mapstructure:"speechkit_folder_id"`
	APIKey     string  `mapstructure:"speechkit_api_key"`
	IAMToken   string  `mapstructure:"speechkit_iam_token"`
	Language   string  `mapstructure:"speechkit_language"`
	Topic      string  `mapstructure:"speechkit_topic"`
	Voice      string  `mapstructure:"speechkit_voice"`
	VoiceRole  string  `mapstructure:"speechkit_voice_role"`
	Speed      float64 `mapstructure:"speechkit_speed"`
	Model      string  `mapstructure:"speechkit_model"`
	SampleRate int     `mapstructure:"speechkit_sample_rate"`
}

// AppConfig is the agent process configuration, bound from environment
// variables (optionally via a .env file, teacher-style).
type AppConfig struct {
	Name     string `mapstructure:"service_name" validate:"required"`
	LogLevel string `mapstructure:"log_level" validate:"required"`
	Role     string `mapstructure:"agent_role" validate:"required"`

	// ListenAddr is the development websocket transport bind address.
	ListenAddr string `mapstructure:"listen_addr" validate:"required"`

	SpeechKit SpeechKitConfig `mapstructure:",squash"`
}

// InitConfig reads env vars (and .env when present), applies defaults and
// validates the result.
func InitConfig() (*AppConfig, error) {
	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	setDefault(v)
	if err := v.ReadInConfig(); err != nil {
		// env-only operation is fine; the .env file is a dev convenience
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: reading .env: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: validation: %w", err)
	}
	return &cfg, nil
}

func setDefault(v *viper.Viper) {
	v.SetDefault("SERVICE_NAME", "voice-agent")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("AGENT_ROLE", "friendly")
	v.SetDefault("LISTEN_ADDR", "0.0.0.0:8090")

	v.SetDefault("SPEECHKIT_FOLDER_ID", "")
	v.SetDefault("SPEECHKIT_API_KEY", "")
	v.SetDefault("SPEECHKIT_IAM_TOKEN", "")
	v.SetDefault("SPEECHKIT_LANGUAGE", "ru-RU")
	v.SetDefault("SPEECHKIT_TOPIC", "general")
	v.SetDefault("SPEECHKIT_VOICE", "marina")
	v.SetDefault("SPEECHKIT_VOICE_ROLE", "")
	v.SetDefault("SPEECHKIT_SPEED", 0.0)
	v.SetDefault("SPEECHKIT_MODEL", "")
	v.SetDefault("SPEECHKIT_SAMPLE_RATE", 16000)
}
