package config

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Environment holds variables read from an env directory.
type Environment map[string]EnvValue

// EnvValue helps to distinguish between empty files and files with the first empty line.
type EnvValue struct {
	Value      string
	NeedRemove bool
}

// ReadEnvDir reads a directory where every file is a variable: the file name is
// the variable name and the first line of the file is its value. An empty file
// marks the variable as removed.
func ReadEnvDir(dir string) (Environment, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	envs := Environment{}
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, errors.New("failed to get info about file " + entry.Name())
		}
		if strings.Contains(entry.Name(), "=") {
			return nil, errors.New("incorrect file name " + entry.Name())
		}

		env := EnvValue{Value: "", NeedRemove: info.Size() == 0}
		if !env.NeedRemove {
			env.Value, err = readLine(filepath.Join(dir, entry.Name()))
			if err != nil {
				return nil, err
			}
			env.Value = normalizeValue(env.Value)
		}
		envs[entry.Name()] = env
	}
	return envs, nil
}

// Lookup reports a removed variable as set to an empty value so it masks
// sources with lower precedence.
func (e Environment) Lookup(name string) (string, bool) {
	env, ok := e[name]
	if !ok {
		return "", false
	}
	if env.NeedRemove {
		return "", true
	}
	return env.Value, true
}

func normalizeValue(val string) string {
	val = strings.TrimRight(val, " \t\r")
	return string(bytes.ReplaceAll([]byte(val), []byte{byte('\x00')}, []byte{byte('\n')}))
}

func readLine(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", nil
}
