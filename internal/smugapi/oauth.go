// Copyright 2016 Google Inc. All Rights Reserved.
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

package smugapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/garyburd/go-oauth/oauth"
)

// OAuth1Signer is the pluggable Signer (spec.md §9: "the core engine must
// not depend on the signing method") built on garyburd/go-oauth the same
// way perkeep's Flickr importer signs requests against another OAuth1
// photo host (pkg/importer/flickr/flickr.go).
type OAuth1Signer struct {
	Client      *oauth.Client
	Credentials *oauth.Credentials
}

func NewOAuth1Signer(consumerKey, consumerSecret, accessToken, accessSecret string, endpoints OAuth1Endpoints) *OAuth1Signer {
	return &OAuth1Signer{
		Client: &oauth.Client{
			TemporaryCredentialRequestURI: endpoints.RequestTokenURL,
			ResourceOwnerAuthorizationURI: endpoints.AuthorizeURL,
			TokenRequestURI:               endpoints.AccessTokenURL,
			Credentials: oauth.Credentials{
				Token:  consumerKey,
				Secret: consumerSecret,
			},
		},
		Credentials: &oauth.Credentials{
			Token:  accessToken,
			Secret: accessSecret,
		},
	}
}

func (s *OAuth1Signer) Sign(req *http.Request) error {
	form := url.Values{}
	header := s.Client.AuthorizationHeader(s.Credentials, req.Method, req.URL, form)
	req.Header.Set("Authorization", header)
	return nil
}

// OAuth1Endpoints names the three-legged-flow URLs for the remote host.
type OAuth1Endpoints struct {
	RequestTokenURL string
	AuthorizeURL    string
	AccessTokenURL  string
}

// LoginFlow drives the OAuth1 three-legged dance (out of scope for the
// sync engine itself per spec.md §1, but needed by the `login` verb):
// request a temporary credential, present the authorization URL to the
// user, then exchange the verifier for a long-lived access token.
// Modeled on perkeep's ServeSetup/ServeCallback pair.
type LoginFlow struct {
	Client    *oauth.Client
	Endpoints OAuth1Endpoints
}

func NewLoginFlow(consumerKey, consumerSecret string, endpoints OAuth1Endpoints) *LoginFlow {
	return &LoginFlow{
		Client: &oauth.Client{
			TemporaryCredentialRequestURI: endpoints.RequestTokenURL,
			ResourceOwnerAuthorizationURI: endpoints.AuthorizeURL,
			TokenRequestURI:               endpoints.AccessTokenURL,
			Credentials: oauth.Credentials{
				Token:  consumerKey,
				Secret: consumerSecret,
			},
		},
		Endpoints: endpoints,
	}
}

// RequestAuthorizationURL starts the flow and returns the URL the user
// must visit, along with the temporary credentials needed to finish it.
func (f *LoginFlow) RequestAuthorizationURL(ctx context.Context, callbackURL string) (authURL string, tempCred *oauth.Credentials, err error) {
	tempCred, err = f.Client.RequestTemporaryCredentials(http.DefaultClient, callbackURL, nil)
	if err != nil {
		return "", nil, authErr(err)
	}
	authURL = f.Client.AuthorizationURL(tempCred, nil)
	return authURL, tempCred, nil
}

// ExchangeVerifier completes the flow given the verifier the user typed
// back in, returning the long-lived access token/secret pair to persist.
func (f *LoginFlow) ExchangeVerifier(ctx context.Context, tempCred *oauth.Credentials, verifier string) (accessToken, accessSecret string, err error) {
	tokenCred, _, err := f.Client.RequestToken(http.DefaultClient, tempCred, verifier)
	if err != nil {
		return "", "", authErr(err)
	}
	return tokenCred.Token, tokenCred.Secret, nil
}
