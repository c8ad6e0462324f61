package app

import (
    "errors"
    "os"
    "strings"

    "github.com/joho/godotenv"
)

// LoadEnvFiles loads dotenv files into the process environment. Later files
// override earlier ones; variables already set in the real environment are
// kept only if no file defines them. Missing files are skipped.
func LoadEnvFiles(paths ...string) error {
    for _, p := range paths {
        if strings.TrimSpace(p) == "" {
            continue
        }
        if err := godotenv.Overload(p); err != nil {
            if errors.Is(err, os.ErrNotExist) {
                continue
            }
            return err
        }
    }
    return nil
}
