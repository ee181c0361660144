// Command bump increments the major, minor or patch part of VERSION.txt.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

const file = "internal/version/VERSION.txt"

func main() {
	flag.Parse()
	b, err := os.ReadFile(file)
	if err != nil {
		log.Fatal(err)
	}
	v, err := parse(string(bytes.TrimSpace(b)))
	if err != nil {
		log.Fatal(err)
	}
	switch flag.Arg(0) {
	case "major":
		v.major++
		v.minor, v.patch = 0, 0
	case "minor":
		v.minor++
		v.patch = 0
	case "patch":
		v.patch++
	default:
		log.Fatalf("unknown part %q, use major, minor or patch", flag.Arg(0))
	}
	if err := os.WriteFile(file, []byte(v.String()+"\n"), 0600); err != nil {
		log.Fatal(err)
	}
}

type Version struct {
	major, minor, patch int
}

func (v *Version) String() string {
	return fmt.Sprintf("v%d.%d.%d", v.major, v.minor, v.patch)
}

func parse(s string) (*Version, error) {
	if !semver.IsValid(s) || semver.Prerelease(s) != "" || semver.Build(s) != "" {
		return nil, fmt.Errorf("invalid version %q", s)
	}
	p := strings.Split(strings.TrimPrefix(semver.Canonical(s), "v"), ".")
	var v Version
	var err error
	if v.major, err = strconv.Atoi(p[0]); err != nil {
		return nil, err
	}
	if v.minor, err = strconv.Atoi(p[1]); err != nil {
		return nil, err
	}
	if v.patch, err = strconv.Atoi(p[2]); err != nil {
		return nil, err
	}
	return &v, nil
}
