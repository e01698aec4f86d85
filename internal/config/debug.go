package config

import "os"

func IsDebug() bool {
	return os.Getenv("RECALL_DEBUG") == "1"
}
