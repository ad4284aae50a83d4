package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/filevault/internal/flagx"
)

var flagNames = []string{"-a", "-grpc", "-d", "-b", "-e", "-g", "-r", "-policy", "-otlp", "-log-level", "-presign"}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string          HTTP bind address (e.g. ":8080")
//	-grpc string       gRPC health bind address
//	-d string          PostgreSQL DSN
//	-b string          S3 bucket
//	-e string          S3 endpoint (e.g. "http://127.0.0.1:9000")
//	-g string          S3 region
//	-presign duration  lifetime of signed URLs
//	-r string          Redis address, empty disables the URL cache
//	-policy string     download policy, "verify" or "public"
//	-otlp string       OTLP/HTTP trace endpoint, empty disables tracing
//	-log-level string  debug, info, warn or error
//
// args is filtered with flagx.FilterArgs first so the -c/-config flag owned
// by the file loader does not trip the parser.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("filevault-server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address")
	fs.StringVar(&config.GRPCAddr, "grpc", config.GRPCAddr, "gRPC health address")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Endpoint, "e", config.S3Endpoint, "S3 endpoint")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.DurationVar(&config.S3PresignExpiry, "presign", config.S3PresignExpiry, "signed URL lifetime")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "Redis address")
	fs.StringVar(&config.DownloadPolicy, "policy", config.DownloadPolicy, "download policy")
	fs.StringVar(&config.OTLPEndpoint, "otlp", config.OTLPEndpoint, "OTLP endpoint")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")

	return fs.Parse(flagx.FilterArgs(args, flagNames))
}
