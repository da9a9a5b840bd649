package env

import (
	"os"
	"strconv"
	"time"

	logging "github.com/ipfs/go-log/v2"
)

var logger = logging.Logger("env")

func GetString(key Key, defaultValue string) string {
	value := os.Getenv(string(key))
	if value == "" {
		return defaultValue
	}

	return value
}

func GetInt(key Key, defaultValue int) int {
	value := os.Getenv(string(key))
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		logger.Debugf("failed to parse %s as int", key)
		return defaultValue
	}

	return intValue
}

func GetUint64(key Key, defaultValue uint64) uint64 {
	value := os.Getenv(string(key))
	if value == "" {
		return defaultValue
	}

	uintValue, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		logger.Debugf("failed to parse %s as uint64", key)
		return defaultValue
	}

	return uintValue
}

func GetBool(key Key, defaultValue bool) bool {
	value := os.Getenv(string(key))
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		logger.Debugf("failed to parse %s as bool", key)
		return defaultValue
	}

	return boolValue
}

func GetRequiredString(key Key) string {
	value := os.Getenv(string(key))
	if value == "" {
		logger.Panicf("%s not set", key)
	}

	return value
}

func GetRequiredDuration(key Key) time.Duration {
	value := GetRequiredString(key)
	duration, err := time.ParseDuration(value)
	if err != nil {
		logger.Panicf("failed to parse %s as duration", key)
	}

	return duration
}

func GetDuration(key Key, defaultValue time.Duration) time.Duration {
	value := os.Getenv(string(key))
	if value == "" {
		return defaultValue
	}

	return GetRequiredDuration(key)
}
