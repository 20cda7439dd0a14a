package accounts

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Default environment variable names read by EnvSource
const (
	DefaultKeyEnv       = "KRAKEN_API_KEY"
	DefaultSecretEnv    = "KRAKEN_API_SECRET"
	DefaultOTPSecretEnv = "KRAKEN_OTP_SECRET"
)

var (
	errKeyFileTooShort = errors.New("key file must contain the API key and secret on separate lines")
	errNotATerminal    = errors.New("secret prompt requires an interactive terminal")
)

// Source loads credentials from an external store
type Source interface {
	Load(ctx context.Context) (*Credentials, error)
}

// Load fetches credentials from src and validates them
func Load(ctx context.Context, src Source) (*Credentials, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil credential source", ErrConfiguration)
	}
	creds, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	return creds, nil
}

// StaticSource returns fixed credentials
type StaticSource Credentials

// Load implements Source
func (s StaticSource) Load(context.Context) (*Credentials, error) {
	c := Credentials(s)
	return &c, nil
}

// FileSource reads a plain text file whose first line holds the API key and
// second line the API secret. An optional third line holds the OTP secret.
type FileSource struct {
	Path string
}

// Load implements Source
func (f FileSource) Load(context.Context) (*Credentials, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	defer file.Close()
	return parseKeyLines(file)
}

func parseKeyLines(r io.Reader) (*Credentials, error) {
	var lines []string
	s := bufio.NewScanner(r)
	for s.Scan() {
		lines = append(lines, strings.TrimSpace(s.Text()))
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if len(lines) < 2 {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, errKeyFileTooShort)
	}
	c := &Credentials{Key: lines[0], Secret: lines[1]}
	if len(lines) > 2 {
		c.OTPSecret = lines[2]
	}
	return c, nil
}

// EnvSource reads credentials from environment variables. Empty names fall
// back to the Default*Env constants.
type EnvSource struct {
	KeyVar       string
	SecretVar    string
	OTPSecretVar string
}

// Load implements Source
func (e EnvSource) Load(context.Context) (*Credentials, error) {
	return &Credentials{
		Key:       os.Getenv(orDefault(e.KeyVar, DefaultKeyEnv)),
		Secret:    os.Getenv(orDefault(e.SecretVar, DefaultSecretEnv)),
		OTPSecret: os.Getenv(orDefault(e.OTPSecretVar, DefaultOTPSecretEnv)),
	}, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// PromptSource asks for the key on Out and reads the secret from the terminal
// without echo
type PromptSource struct {
	In  *os.File
	Out io.Writer
}

// Load implements Source
func (p PromptSource) Load(context.Context) (*Credentials, error) {
	in := p.In
	if in == nil {
		in = os.Stdin
	}
	out := p.Out
	if out == nil {
		out = os.Stderr
	}
	fd := int(in.Fd()) //nolint:gosec // File descriptors fit in int
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, errNotATerminal)
	}

	fmt.Fprint(out, "API key: ")
	key, err := readLine(in)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	fmt.Fprint(out, "API secret: ")
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return &Credentials{
		Key:    strings.TrimSpace(key),
		Secret: strings.TrimSpace(string(secret)),
	}, nil
}

// readLine reads up to and excluding the next newline one byte at a time so
// nothing past the line is consumed from r
func readLine(r io.Reader) (string, error) {
	var (
		line []byte
		b    [1]byte
	)
	for {
		n, err := r.Read(b[:])
		if n == 1 {
			if b[0] == '\n' {
				return string(line), nil
			}
			line = append(line, b[0])
		}
		if errors.Is(err, io.EOF) {
			if len(line) == 0 {
				return "", io.EOF
			}
			return string(line), nil
		}
		if err != nil {
			return "", err
		}
	}
}
