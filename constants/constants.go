package constants

import (
	"os"
	"strconv"
	"time"
)

func getEnv(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func GetStoreDir() string {
	return getEnv("SCOREPAD_STORE_DIR", "./scores")
}

func GetAddr() string {
	return getEnv("SCOREPAD_ADDR", ":8080")
}

func GetInstrument() string {
	return getEnv("SCOREPAD_INSTRUMENT", "piano")
}

func GetLogLevel() string {
	return getEnv("SCOREPAD_LOG_LEVEL", "INFO")
}

func GetHistoryDepth() int {
	return getEnvInt("SCOREPAD_HISTORY_DEPTH", DefaultHistoryDepth)
}

func GetAutosaveWait() time.Duration {
	return time.Duration(getEnvInt("SCOREPAD_AUTOSAVE_MS", 500)) * time.Millisecond
}

// GetDynamoEndpoint returns "" when scores should not be stored in DynamoDB.
func GetDynamoEndpoint() string {
	return os.Getenv("SCOREPAD_DYNAMO_ENDPOINT")
}

func GetDynamoRegion() string {
	return getEnv("SCOREPAD_DYNAMO_REGION", "localhost")
}

func GetDynamoTable() string {
	return getEnv("SCOREPAD_DYNAMO_TABLE", "scorepad-scores")
}

const DefaultHistoryDepth = 20

const DefaultTempo = 120

// upper bound on the length of one score
const MaxMeasures = 1000

// MIDI resolution used for export and normalised import
const TicksPerBeat = 480

// the end marker fires this long after the last measure closes
const EndMarkerDelay = 100 * time.Millisecond

// how long a MIDI output may take to open before playback gives up on it
const ConnectTimeout = 5 * time.Second

const DefaultVelocity = 80
