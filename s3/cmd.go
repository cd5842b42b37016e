// Package s3 implements S3 access to query and golden files.
package s3

import (
	"github.com/alecthomas/kingpin/v2"
)

// Flags describes S3 access parameters.
type Flags struct {
	AccessKey    string
	SecretKey    string
	SessionToken string
	Region       string
	URL          string
	PathStyle    bool
}

// Register sets up flags as command line options.
func (f *Flags) Register(app *kingpin.Application) {
	app.Flag("s3_access_key", "S3 access key/id for s3:// paths (env AWS_ACCESS_KEY).").
		Envar("AWS_ACCESS_KEY").StringVar(&f.AccessKey)
	app.Flag("s3_secret_key", "S3 secret key (env AWS_SECRET_KEY).").
		Envar("AWS_SECRET_KEY").StringVar(&f.SecretKey)
	app.Flag("s3_session_token", "S3 session token (env AWS_SESSION_TOKEN).").
		Envar("AWS_SESSION_TOKEN").StringVar(&f.SessionToken)

	app.Flag("s3_region", "S3 region.").Default("eu-central-1").StringVar(&f.Region)
	app.Flag("s3_url", "Optional S3 URL (if not AWS).").StringVar(&f.URL)
	app.Flag("s3_path_style", "To use path-style addressing, i.e., `http://s3.amazonaws.com/BUCKET/KEY`.").
		BoolVar(&f.PathStyle)
}
