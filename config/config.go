package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadENV loads variables from .env unless GO_ENV says the environment is
// already provisioned
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil {
			return err
		}
	}

	return nil
}

type EnviornmentVariable struct {
	GO_ENV       string
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	PORT         int
	// JWT Configuration
	JWT_SECRET string
	JWT_ISSUER string
	// Redis Configuration
	REDIS_URL string
	// LLM Inference Configuration
	INFERENCE_API_KEY string
	INFERENCE_MODEL   string
	// University directory API
	UNIVERSITY_API_URL string
	// Classification engine
	CLASSIFY_CONCURRENCY int
}

func Get() (*EnviornmentVariable, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	// Database defaults
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}

	dbPort := os.Getenv("DB_PORT")
	if dbPort == "" {
		dbPort = "5432"
	}

	universityAPIURL := os.Getenv("UNIVERSITY_API_URL")
	if universityAPIURL == "" {
		universityAPIURL = "http://universities.hipolabs.com"
	}

	concurrency, err := strconv.Atoi(os.Getenv("CLASSIFY_CONCURRENCY"))
	if err != nil || concurrency <= 0 {
		concurrency = 4
	}

	envVariables := &EnviornmentVariable{
		GO_ENV:       os.Getenv("GO_ENV"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      dbHost,
		DB_PORT:      dbPort,
		DB_SSL_MODE:  os.Getenv("DB_SSL_MODE"),
		PORT:         port,
		// JWT
		JWT_SECRET: os.Getenv("JWT_SECRET"),
		JWT_ISSUER: os.Getenv("JWT_ISSUER"),
		// Redis
		REDIS_URL: os.Getenv("REDIS_URL"),
		// LLM
		INFERENCE_API_KEY: os.Getenv("INFERENCE_API_KEY"),
		INFERENCE_MODEL:   os.Getenv("INFERENCE_MODEL"),
		// Directory
		UNIVERSITY_API_URL: universityAPIURL,
		// Classification
		CLASSIFY_CONCURRENCY: concurrency,
	}

	return envVariables, nil
}
