package loader

import (
	"bytes"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var yamlLineRE = regexp.MustCompile(`line (\d+)`)

func decodeYAML(source string, data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	err := dec.Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		// An empty document leaves v untouched.
		return nil
	}

	perr := &ParseError{Path: source, Message: err.Error(), Err: err}
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) {
		perr.Message = strings.Join(typeErr.Errors, "; ")
	}
	if m := yamlLineRE.FindStringSubmatch(perr.Message); m != nil {
		perr.Line, _ = strconv.Atoi(m[1])
	}
	perr.Message = strings.TrimPrefix(perr.Message, "yaml: ")
	return perr
}
