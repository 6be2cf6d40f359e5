package config

import (
	"encoding/json"
	"os"

	"github.com/hassankhurram/chatbot-gemini/internal/flagx"
	"github.com/hassankhurram/chatbot-gemini/internal/timex"
)

// JsonConfig mirrors Config for JSON unmarshalling. Interval fields use
// timex.Duration so both "24h" strings and integer nanoseconds parse.
type JsonConfig struct {
	EndpointAddrHTTP      string         `json:"endpoint_addr_http"`
	DatabaseDSN           string         `json:"database_dsn"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	RequestTimeout        timex.Duration `json:"request_timeout"`
	LLMAPIKey             string         `json:"llm_api_key"`
	LLMBaseURL            string         `json:"llm_base_url"`
	LLMModel              string         `json:"llm_model"`
	AdminUsername         string         `json:"admin_username"`
	AdminPassword         string         `json:"admin_password"`
	AdminEmail            string         `json:"admin_email"`
	AdminName             string         `json:"admin_name"`
	S3RootUser            string         `json:"s3_root_user"`
	S3RootPassword        string         `json:"s3_root_password"`
	S3Bucket              string         `json:"s3_bucket"`
	S3Region              string         `json:"s3_region"`
	S3BaseEndpoint        string         `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flag into the provided Config. Keys absent from the file leave
// the current values untouched. If the file cannot be read or contains
// invalid JSON, the function panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := unmarshalJson(file, c, config); err != nil {
		panic(err)
	}
}

// unmarshalJson decodes data into c and copies the values that were present
// onto config.
func unmarshalJson(data []byte, c *JsonConfig, config *Config) error {
	if err := json.Unmarshal(data, c); err != nil {
		return err
	}

	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.LLMAPIKey, c.LLMAPIKey)
	setString(&config.LLMBaseURL, c.LLMBaseURL)
	setString(&config.LLMModel, c.LLMModel)
	setString(&config.AdminUsername, c.AdminUsername)
	setString(&config.AdminPassword, c.AdminPassword)
	setString(&config.AdminEmail, c.AdminEmail)
	setString(&config.AdminName, c.AdminName)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.TokenValidityDuration.Duration != 0 {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.RequestTimeout.Duration != 0 {
		config.RequestTimeout = c.RequestTimeout.Duration
	}

	return nil
}
