package bluesky

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"unicode/utf8"

	"github.com/bluesky-social/indigo/api/atproto"
	"github.com/bluesky-social/indigo/api/bsky"
	lexutil "github.com/bluesky-social/indigo/lex/util"
	"github.com/bluesky-social/indigo/xrpc"

	"github.com/kevinhicks7/noaa-api/internal/config"
	"github.com/kevinhicks7/noaa-api/internal/domain"
	"github.com/kevinhicks7/noaa-api/internal/observability"
)

// PasswordVar names the environment variable that holds the app password.
const PasswordVar = "BSKY_CLIMATE_BOT_PW"

const (
	nsidCreateSession = "com.atproto.server.createSession"
	nsidUploadBlob    = "com.atproto.repo.uploadBlob"
	nsidCreateRecord  = "com.atproto.repo.createRecord"

	collectionPost = "app.bsky.feed.post"

	// createdAt uses millisecond precision in UTC.
	timestampLayout = "2006-01-02T15:04:05.000Z"
)

// Poster publishes posts to a Bluesky PDS over XRPC.
type Poster struct {
	handle   string
	password string
	client   *xrpc.Client
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewPoster creates a Poster. A zero BskyTimeout disables request timeouts.
func NewPoster(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Poster {
	return &Poster{
		handle:   cfg.BskyHandle,
		password: cfg.BskyPassword,
		client: &xrpc.Client{
			Client: &http.Client{Timeout: cfg.BskyTimeout},
			Host:   cfg.BskyHost,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Post logs in and creates one feed post, uploading the image first when
// the post carries one.
func (p *Poster) Post(ctx context.Context, post domain.Post) error {
	kind := "text"
	if post.HasImage() {
		kind = "image"
	}

	uri, err := p.post(ctx, post)
	if err != nil {
		p.metrics.Posts.WithLabelValues(kind, "error").Inc()
		return err
	}
	p.metrics.Posts.WithLabelValues(kind, "success").Inc()
	p.logger.Info("post published", "handle", p.handle, "kind", kind, "uri", uri)
	return nil
}

func (p *Poster) post(ctx context.Context, post domain.Post) (string, error) {
	if p.password == "" {
		return "", &domain.MissingCredentialError{Name: PasswordVar}
	}
	if n := utf8.RuneCountInString(post.Text); n > domain.MaxPostLength {
		return "", fmt.Errorf("post text has %d characters, limit is %d", n, domain.MaxPostLength)
	}

	client, err := p.login(ctx)
	if err != nil {
		return "", err
	}

	record := &bsky.FeedPost{
		Text:      post.Text,
		CreatedAt: domain.Now().UTC().Format(timestampLayout),
	}
	if post.HasImage() {
		blob, err := p.uploadBlob(ctx, client, post.Image)
		if err != nil {
			return "", err
		}
		record.Embed = &bsky.FeedPost_Embed{EmbedImages: imagesEmbed(blob, post)}
	}

	out, err := atproto.RepoCreateRecord(ctx, client, &atproto.RepoCreateRecord_Input{
		Repo:       client.Auth.Did,
		Collection: collectionPost,
		Record:     &lexutil.LexiconTypeDecoder{Val: record},
	})
	if err != nil {
		return "", fmt.Errorf("bluesky %s: %w", nsidCreateRecord, err)
	}
	return out.Uri, nil
}

// login creates a session and returns a client authorised for it. The
// shared client is left unauthenticated.
func (p *Poster) login(ctx context.Context) (*xrpc.Client, error) {
	sess, err := atproto.ServerCreateSession(ctx, p.client, &atproto.ServerCreateSession_Input{
		Identifier: p.handle,
		Password:   p.password,
	})
	if err != nil {
		return nil, fmt.Errorf("bluesky %s: %w", nsidCreateSession, err)
	}
	if sess.AccessJwt == "" || sess.Did == "" {
		return nil, fmt.Errorf("bluesky %s: response has no session", nsidCreateSession)
	}
	p.logger.Debug("bluesky session created", "handle", sess.Handle, "did", sess.Did)

	authed := *p.client
	authed.Auth = &xrpc.AuthInfo{
		AccessJwt:  sess.AccessJwt,
		RefreshJwt: sess.RefreshJwt,
		Handle:     sess.Handle,
		Did:        sess.Did,
	}
	return &authed, nil
}

func (p *Poster) uploadBlob(ctx context.Context, client *xrpc.Client, data []byte) (*lexutil.LexBlob, error) {
	out, err := atproto.RepoUploadBlob(ctx, client, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("bluesky %s: %w", nsidUploadBlob, err)
	}
	if out.Blob == nil {
		return nil, fmt.Errorf("bluesky %s: response has no blob", nsidUploadBlob)
	}
	p.logger.Debug("image uploaded", "bytes", len(data), "mime", out.Blob.MimeType)
	return out.Blob, nil
}

func imagesEmbed(blob *lexutil.LexBlob, post domain.Post) *bsky.EmbedImages {
	img := &bsky.EmbedImages_Image{Alt: post.ImageAlt, Image: blob}
	if ar := post.AspectRatio; ar != nil {
		img.AspectRatio = &bsky.EmbedDefs_AspectRatio{Width: int64(ar.Width), Height: int64(ar.Height)}
	}
	return &bsky.EmbedImages{Images: []*bsky.EmbedImages_Image{img}}
}
