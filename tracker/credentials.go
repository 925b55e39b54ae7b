package main

import (
	"bufio"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// LoadCredentials reads the line-oriented "username password" table. It is
// consulted once at startup and never reloaded.
func LoadCredentials(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open credentials %s", path)
	}
	defer f.Close()

	creds := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, errors.Errorf("credentials %s line %d: want \"username password\"", path, lineNum)
		}
		creds[fields[0]] = fields[1]
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "read credentials %s", path)
	}
	return creds, nil
}
