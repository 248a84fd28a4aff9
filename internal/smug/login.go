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

package smug

import (
	"bufio"
	"context"
	"strings"

	"github.com/smug-cli/smug/config"
	"github.com/smug-cli/smug/internal/smugapi"
)

const outOfBandCallback = "oob"

// Login drives the OAuth1 three-legged dance through smugapi.LoginFlow:
// print the authorization URL, read back the verifier the user copies
// from the browser, exchange it, and persist the access token pair the
// same way the teacher's config.Context.Write persists OAuth2 tokens.
func Login(ctx context.Context, c *config.Context, consumerKey, consumerSecret string, endpoints smugapi.OAuth1Endpoints, in *bufio.Reader, out func(string)) error {
	flow := smugapi.NewLoginFlow(consumerKey, consumerSecret, endpoints)

	authURL, tempCred, err := flow.RequestAuthorizationURL(ctx, outOfBandCallback)
	if err != nil {
		return err
	}

	out("Visit this URL to authorize smug, then paste the verifier code below:\n")
	out(authURL + "\n")

	line, err := in.ReadString('\n')
	if err != nil {
		return err
	}
	verifier := strings.TrimSpace(line)

	accessToken, accessSecret, err := flow.ExchangeVerifier(ctx, tempCred, verifier)
	if err != nil {
		return err
	}

	c.ConsumerKey = consumerKey
	c.ConsumerSecret = consumerSecret
	c.AccessToken = accessToken
	c.AccessSecret = accessSecret

	signer := smugapi.NewOAuth1Signer(consumerKey, consumerSecret, accessToken, accessSecret, endpoints)
	client := smugapi.NewClient(smugapi.DefaultBaseURL, signer, nil)
	nickName, err := client.WhoAmI(ctx)
	if err != nil {
		return err
	}
	c.NickName = nickName

	return c.Write()
}

// Logout forgets the locally persisted credentials without contacting
// the remote host; the teacher's DeInitialize prompt-and-remove flow,
// offering to remove the credentials file, the fingerprint DB and the
// ignore file, each only after the prompter approves it.
func Logout(c *config.Context, prompter func(...interface{}) bool) error {
	return c.DeInitialize(prompter, false)
}
