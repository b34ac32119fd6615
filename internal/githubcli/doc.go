// Package githubcli wraps the GitHub CLI calls used to manage container packages.
//
// It builds gh api invocations for package listing, version listing and
// version deletion, decodes their output into typed records, and integrates
// with execshell so interactions with GitHub can be mocked during testing.
package githubcli
