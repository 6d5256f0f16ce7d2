// Copyright 2025 Nadrama Pty Ltd
// SPDX-License-Identifier: Apache-2.0

package buildvars

// set during build time
var (
	buildVersion = ""
	buildDate    = ""
	commitHash   = ""
	commitDate   = ""
	commitBranch = ""
)

// BuildVersion returns immutable build version, "dev" for unversioned builds
func BuildVersion() string {
	if buildVersion == "" {
		return "dev"
	}
	return buildVersion
}

// BuildDate returns immutable build date
func BuildDate() string {
	return buildDate
}

// CommitHash returns immutable git commit hash
func CommitHash() string {
	return commitHash
}

// CommitDate returns immutable build date
func CommitDate() string {
	return commitDate
}

// CommitBranch returns immutable commit branch
func CommitBranch() string {
	return commitBranch
}

// Details returns label/value pairs of all build variables, in the order
// they are printed by --version -v
func Details() [][2]string {
	return [][2]string{
		{"build version", BuildVersion()},
		{"build date", BuildDate()},
		{"commit hash", CommitHash()},
		{"commit date", CommitDate()},
		{"commit branch", CommitBranch()},
	}
}
