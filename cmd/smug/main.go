// Copyright 2013 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package contains the main entry point of smug.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/odeke-em/command"
	"github.com/odeke-em/log"

	"github.com/smug-cli/smug/config"
	"github.com/smug-cli/smug/internal/smug"
	"github.com/smug-cli/smug/internal/smugapi"
)

const (
	consumerKeyEnv    = "SMUG_CONSUMER_KEY"
	consumerSecretEnv = "SMUG_CONSUMER_SECRET"
)

func oauth1Endpoints() smugapi.OAuth1Endpoints {
	return smugapi.OAuth1Endpoints{
		RequestTokenURL: smugapi.DefaultBaseURL + "/services/oauth/1.0a/getRequestToken",
		AuthorizeURL:    "https://api.smugmug.com/services/oauth/1.0a/authorize",
		AccessTokenURL:  smugapi.DefaultBaseURL + "/services/oauth/1.0a/getAccessToken",
	}
}

func main() {
	command.On("ls", smug.Descriptions["ls"], &lsCmd{}, []string{})
	command.On("mkdir", smug.Descriptions["mkdir"], &mkdirCmd{}, []string{})
	command.On("mkalbum", smug.Descriptions["mkalbum"], &mkalbumCmd{}, []string{})
	command.On("rmdir", smug.Descriptions["rmdir"], &rmdirCmd{}, []string{})
	command.On("rm", smug.Descriptions["rm"], &rmCmd{}, []string{})
	command.On("upload", smug.Descriptions["upload"], &uploadCmd{}, []string{})
	command.On("sync", smug.Descriptions["sync"], &syncCmd{}, []string{})
	command.On("ignore", smug.Descriptions["ignore"], &ignoreCmd{}, []string{})
	command.On("include", smug.Descriptions["include"], &includeCmd{}, []string{})
	command.On("login", smug.Descriptions["login"], &loginCmd{}, []string{})
	command.On("logout", smug.Descriptions["logout"], &logoutCmd{}, []string{})

	command.DefineHelp(&helpCmd{})
	command.ParseAndRun()
}

type helpCmd struct{}

func (cmd *helpCmd) Flags(fs *flag.FlagSet) *flag.FlagSet { return fs }
func (cmd *helpCmd) Run(args []string, definedFlags map[string]*flag.Flag) {
	smug.PrintHelp()
}

// baseFlags are the flags every verb that touches the remote tree
// shares, the generalization of the teacher's recurring quiet/no-prompt/
// recursive trio across pushCmd/pullCmd/listCmd.
type baseFlags struct {
	Quiet    *bool
	NoPrompt *bool
	Long     *bool
}

func bindBaseFlags(fs *flag.FlagSet) *baseFlags {
	return &baseFlags{
		Quiet:    fs.Bool("quiet", false, "if set, do not log anything but errors"),
		NoPrompt: fs.Bool("no-prompt", false, "shows no prompt before applying irreversible actions"),
		Long:     fs.Bool("l", false, "long listing, showing type and remote URI"),
	}
}

func newCommands(opts *smug.Options) *smug.Commands {
	context, _ := discoverContext()

	signer := smugapi.NewOAuth1Signer(context.ConsumerKey, context.ConsumerSecret, context.AccessToken, context.AccessSecret, oauth1Endpoints())
	var httpLog *log.Logger
	if opts.Verbose {
		httpLog = log.New(os.Stdin, os.Stdout, os.Stderr)
	}
	client := smugapi.NewClient(smugapi.DefaultBaseURL, signer, httpLog)

	cmds, err := smug.New(context, client, opts)
	exitWithError(err)
	return cmds
}

type lsCmd struct{ base *baseFlags }

func (cmd *lsCmd) Flags(fs *flag.FlagSet) *flag.FlagSet {
	cmd.base = bindBaseFlags(fs)
	return fs
}

func (cmd *lsCmd) Run(args []string, definedFlags map[string]*flag.Flag) {
	cmds := newCommands(&smug.Options{
		Sources: args,
		Quiet:   *cmd.base.Quiet,
		Long:    *cmd.base.Long,
	})
	defer cmds.Close()
	exitWithError(cmds.Ls(context.Background()))
}

type mkdirCmd struct{ base *baseFlags }

func (cmd *mkdirCmd) Flags(fs *flag.FlagSet) *flag.FlagSet {
	cmd.base = bindBaseFlags(fs)
	return fs
}

func (cmd *mkdirCmd) Run(args []string, definedFlags map[string]*flag.Flag) {
	cmds := newCommands(&smug.Options{Sources: args, Quiet: *cmd.base.Quiet})
	defer cmds.Close()
	exitWithError(cmds.Mkdir(context.Background()))
}

type mkalbumCmd struct{ base *baseFlags }

func (cmd *mkalbumCmd) Flags(fs *flag.FlagSet) *flag.FlagSet {
	cmd.base = bindBaseFlags(fs)
	return fs
}

func (cmd *mkalbumCmd) Run(args []string, definedFlags map[string]*flag.Flag) {
	cmds := newCommands(&smug.Options{Sources: args, Quiet: *cmd.base.Quiet})
	defer cmds.Close()
	exitWithError(cmds.Mkalbum(context.Background()))
}

type rmdirCmd struct{ base *baseFlags }

func (cmd *rmdirCmd) Flags(fs *flag.FlagSet) *flag.FlagSet {
	cmd.base = bindBaseFlags(fs)
	return fs
}

func (cmd *rmdirCmd) Run(args []string, definedFlags map[string]*flag.Flag) {
	cmds := newCommands(&smug.Options{Sources: args, Quiet: *cmd.base.Quiet, NoPrompt: *cmd.base.NoPrompt})
	defer cmds.Close()
	exitWithError(cmds.Rmdir(context.Background()))
}

type rmCmd struct{ base *baseFlags }

func (cmd *rmCmd) Flags(fs *flag.FlagSet) *flag.FlagSet {
	cmd.base = bindBaseFlags(fs)
	return fs
}

func (cmd *rmCmd) Run(args []string, definedFlags map[string]*flag.Flag) {
	cmds := newCommands(&smug.Options{Sources: args, Quiet: *cmd.base.Quiet, NoPrompt: *cmd.base.NoPrompt})
	defer cmds.Close()
	exitWithError(cmds.Rm(context.Background()))
}

// syncFlags are the flags shared by upload and sync, the generalization
// of the teacher's pushCmd flag set (cmd/drive/main.go) to three
// independently-sized pools instead of one.
type syncFlags struct {
	base *baseFlags

	Destination *string
	DryRun      *bool
	Force       *bool
	Verbose     *bool

	FolderThreads *int
	FileThreads   *int
	UploadThreads *int
	SetDefaults   *bool
}

func bindSyncFlags(fs *flag.FlagSet) *syncFlags {
	return &syncFlags{
		base:          bindBaseFlags(fs),
		Destination:   fs.String("dest", "/", "remote Folder/Album path to sync into"),
		DryRun:        fs.Bool("dry-run", false, "report what would change without mutating the remote tree"),
		Force:         fs.Bool("force", false, "accepted but has no effect on sync or upload"),
		Verbose:       fs.Bool("verbose", false, "log each HTTP request's method, URI and response status"),
		FolderThreads: fs.Int("folder-threads", 0, "folder worker pool size (0 uses the persisted or hardcoded default)"),
		FileThreads:   fs.Int("file-threads", 0, "file worker pool size (0 uses the persisted or hardcoded default)"),
		UploadThreads: fs.Int("upload-threads", 0, "upload worker pool size (0 uses the persisted or hardcoded default)"),
		SetDefaults:   fs.Bool("set-defaults", false, "persist the resolved thread counts to .smug/smugrc"),
	}
}

func (f *syncFlags) options(args []string) *smug.Options {
	return &smug.Options{
		Sources:       args,
		Destination:   *f.Destination,
		Quiet:         *f.base.Quiet,
		Verbose:       *f.Verbose,
		DryRun:        *f.DryRun,
		Force:         *f.Force,
		FolderThreads: *f.FolderThreads,
		FileThreads:   *f.FileThreads,
		UploadThreads: *f.UploadThreads,
		SetDefaults:   *f.SetDefaults,
	}
}

type uploadCmd struct{ flags *syncFlags }

func (cmd *uploadCmd) Flags(fs *flag.FlagSet) *flag.FlagSet {
	cmd.flags = bindSyncFlags(fs)
	return fs
}

func (cmd *uploadCmd) Run(args []string, definedFlags map[string]*flag.Flag) {
	cmds := newCommands(cmd.flags.options(args))
	defer cmds.Close()
	exitWithError(cmds.Upload(context.Background()))
}

type syncCmd struct {
	flags  *syncFlags
	Delete *bool
}

func (cmd *syncCmd) Flags(fs *flag.FlagSet) *flag.FlagSet {
	cmd.flags = bindSyncFlags(fs)
	cmd.Delete = fs.Bool("delete", false, "remove remote images with no local counterpart from the albums this run synced")
	return fs
}

func (cmd *syncCmd) Run(args []string, definedFlags map[string]*flag.Flag) {
	opts := cmd.flags.options(args)
	opts.Delete = *cmd.Delete
	cmds := newCommands(opts)
	defer cmds.Close()
	exitWithError(cmds.Sync(context.Background()))
}

type ignoreCmd struct{}

func (cmd *ignoreCmd) Flags(fs *flag.FlagSet) *flag.FlagSet { return fs }
func (cmd *ignoreCmd) Run(args []string, definedFlags map[string]*flag.Flag) {
	cmds := newCommands(&smug.Options{Sources: args})
	defer cmds.Close()
	exitWithError(cmds.Ignore())
}

type includeCmd struct{}

func (cmd *includeCmd) Flags(fs *flag.FlagSet) *flag.FlagSet { return fs }
func (cmd *includeCmd) Run(args []string, definedFlags map[string]*flag.Flag) {
	cmds := newCommands(&smug.Options{Sources: args})
	defer cmds.Close()
	exitWithError(cmds.Include())
}

type loginCmd struct {
	ConsumerKey    *string
	ConsumerSecret *string
}

func (cmd *loginCmd) Flags(fs *flag.FlagSet) *flag.FlagSet {
	cmd.ConsumerKey = fs.String("consumer-key", os.Getenv(consumerKeyEnv), "OAuth1 consumer key, or set "+consumerKeyEnv)
	cmd.ConsumerSecret = fs.String("consumer-secret", os.Getenv(consumerSecretEnv), "OAuth1 consumer secret, or set "+consumerSecretEnv)
	return fs
}

func (cmd *loginCmd) Run(args []string, definedFlags map[string]*flag.Flag) {
	if *cmd.ConsumerKey == "" || *cmd.ConsumerSecret == "" {
		exitWithError(fmt.Errorf("login: -consumer-key and -consumer-secret (or %s/%s) are required", consumerKeyEnv, consumerSecretEnv))
		return
	}

	absPath, err := os.Getwd()
	exitWithError(err)

	_, _, c, err := config.Initialize(absPath)
	exitWithError(err)

	in := bufio.NewReader(os.Stdin)
	out := func(s string) { fmt.Fprint(os.Stdout, s) }

	err = smug.Login(context.Background(), c, *cmd.ConsumerKey, *cmd.ConsumerSecret, oauth1Endpoints(), in, out)
	exitWithError(err)
	fmt.Fprintf(os.Stdout, "Logged in as %s\n", c.NickName)
}

type logoutCmd struct{}

func (cmd *logoutCmd) Flags(fs *flag.FlagSet) *flag.FlagSet { return fs }
func (cmd *logoutCmd) Run(args []string, definedFlags map[string]*flag.Flag) {
	c, _ := discoverContext()
	prompter := func(args ...interface{}) bool {
		fmt.Fprint(os.Stdout, args...)
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		return len(line) > 0 && (line[0] == 'y' || line[0] == 'Y')
	}
	exitWithError(smug.Logout(c, prompter))
}

func discoverContext() (*config.Context, string) {
	cwd, err := os.Getwd()
	exitWithError(err)

	c, err := config.Discover(cwd)
	exitWithError(err)

	relPath, err := filepath.Rel(c.AbsPath, cwd)
	exitWithError(err)
	return c, relPath
}

// exitWithError implements spec.md's strict exit-status contract: 0 on
// success, 1 on a task/run failure, 2 on invalid arguments. A
// *smug.Error resolves its exit code via ExitCode(); any other error
// exits with 1.
func exitWithError(err error) {
	if err == nil {
		return
	}

	code := 1
	if coded, ok := err.(*smug.Error); ok {
		code = coded.ExitCode()
	}

	fmt.Fprintf(os.Stderr, "%s\n", err.Error())
	os.Exit(code)
}
