// Package config reads the optional configuration file of pegen.
//
//	output: src/main/java/org/example/ExprParser.java
//	java:
//	  package: org.example
//	  class: ExprParser
//	  extends: org.example.runtime.Parser
//	  imports:
//	    - org.example.ast.*
//
// Values given on the command line take precedence over the file, and the file takes precedence over the meta
// directives of a grammar.
package config

import (
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/nihei9/jpegen/generator/java"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Output is the path of the generated file.
	Output string     `yaml:"output"`
	Java   JavaConfig `yaml:"java"`
}

type JavaConfig struct {
	Package string   `yaml:"package"`
	Class   string   `yaml:"class"`
	Extends string   `yaml:"extends"`
	Imports []string `yaml:"imports"`
}

// Load reads a configuration file. Unknown keys are errors.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	c, err := Read(f)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid configuration file %v", path)
	}
	return c, nil
}

func Read(r io.Reader) (*Config, error) {
	c := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	err := dec.Decode(c)
	if err != nil && err != io.EOF {
		return nil, errors.WithStack(err)
	}
	err = Validate(c)
	if err != nil {
		return nil, err
	}
	return c, nil
}

var (
	reIdentifier    = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)
	reQualifiedName = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*(\.[A-Za-z_$][A-Za-z0-9_$]*)*$`)
	reImport        = regexp.MustCompile(`^(static )?[A-Za-z_$][A-Za-z0-9_$]*(\.[A-Za-z_$][A-Za-z0-9_$]*)*(\.\*)?$`)
)

// Validate checks that the Java names are well-formed.
func Validate(c *Config) error {
	if c.Java.Package != "" && !reQualifiedName.MatchString(c.Java.Package) {
		return fmt.Errorf("invalid package name: %v", c.Java.Package)
	}
	if c.Java.Class != "" && !reIdentifier.MatchString(c.Java.Class) {
		return fmt.Errorf("invalid class name: %v", c.Java.Class)
	}
	if c.Java.Extends != "" && !reQualifiedName.MatchString(c.Java.Extends) {
		return fmt.Errorf("invalid base class name: %v", c.Java.Extends)
	}
	for _, imp := range c.Java.Imports {
		if !reImport.MatchString(imp) {
			return fmt.Errorf("invalid import: %v", imp)
		}
	}
	return nil
}

// JavaOptions turns the java section into generator options.
func (c *Config) JavaOptions() []java.Option {
	var opts []java.Option
	if c.Java.Package != "" {
		opts = append(opts, java.Package(c.Java.Package))
	}
	if c.Java.Class != "" {
		opts = append(opts, java.ClassName(c.Java.Class))
	}
	if c.Java.Extends != "" {
		opts = append(opts, java.Extends(c.Java.Extends))
	}
	if len(c.Java.Imports) > 0 {
		opts = append(opts, java.Imports(c.Java.Imports...))
	}
	return opts
}
