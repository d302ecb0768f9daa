package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

var ErrUnsupportedScheme = errors.New("unsupported file uri scheme")

type FileInfo struct {
	Name string
	Size int64
}

// FileSource resolves and reads files addressed by URI.
type FileSource interface {
	Stat(ctx context.Context, uri string) (FileInfo, error)
	ReadAll(ctx context.Context, uri string) ([]byte, error)
}

// FileSources dispatches on the URI scheme: no scheme or file:// is read
// from disk, gs:// from Cloud Storage and sftp:// over SSH. Remote sources
// are optional; a nil one rejects its scheme.
type FileSources struct {
	Local LocalFileSource
	GCS   *GCSFileSource
	SFTP  *SFTPFileSource
}

func (s *FileSources) pick(uri string) (FileSource, error) {
	switch {
	case strings.HasPrefix(uri, "gs://"):
		if s.GCS == nil {
			return nil, fmt.Errorf("%w: gs (storage not configured)", ErrUnsupportedScheme)
		}
		return s.GCS, nil
	case strings.HasPrefix(uri, "sftp://"):
		if s.SFTP == nil {
			return nil, fmt.Errorf("%w: sftp (not configured)", ErrUnsupportedScheme)
		}
		return s.SFTP, nil
	case strings.HasPrefix(uri, "file://"), !strings.Contains(uri, "://"):
		return s.Local, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, uri)
	}
}

func (s *FileSources) Stat(ctx context.Context, uri string) (FileInfo, error) {
	src, err := s.pick(uri)
	if err != nil {
		return FileInfo{}, err
	}
	return src.Stat(ctx, uri)
}

func (s *FileSources) ReadAll(ctx context.Context, uri string) ([]byte, error) {
	src, err := s.pick(uri)
	if err != nil {
		return nil, err
	}
	return src.ReadAll(ctx, uri)
}

type LocalFileSource struct{}

func (LocalFileSource) Stat(_ context.Context, uri string) (FileInfo, error) {
	fi, err := os.Stat(strings.TrimPrefix(uri, "file://"))
	if err != nil {
		return FileInfo{}, err
	}
	if fi.IsDir() {
		return FileInfo{}, fmt.Errorf("%s is a directory", uri)
	}
	return FileInfo{Name: fi.Name(), Size: fi.Size()}, nil
}

func (LocalFileSource) ReadAll(_ context.Context, uri string) ([]byte, error) {
	return os.ReadFile(strings.TrimPrefix(uri, "file://"))
}

type GCSFileSource struct {
	client *storage.Client
}

func NewGCSFileSource(client *storage.Client) *GCSFileSource {
	return &GCSFileSource{client: client}
}

// ParseGCSURI splits "gs://bucket/dir/object" into bucket and object name.
func ParseGCSURI(uri string) (bucket string, object string, err error) {
	rest, ok := strings.CutPrefix(uri, "gs://")
	if !ok {
		return "", "", fmt.Errorf("not a gs:// uri: %s", uri)
	}
	bucket, object, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("gs uri needs bucket and object: %s", uri)
	}
	return bucket, object, nil
}

func (g *GCSFileSource) Stat(ctx context.Context, uri string) (FileInfo, error) {
	bucket, object, err := ParseGCSURI(uri)
	if err != nil {
		return FileInfo{}, err
	}
	attrs, err := g.client.Bucket(bucket).Object(object).Attrs(ctx)
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{Name: path.Base(attrs.Name), Size: attrs.Size}, nil
}

func (g *GCSFileSource) ReadAll(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := ParseGCSURI(uri)
	if err != nil {
		return nil, err
	}
	r, err := g.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

type SFTPFileSource struct {
	password       string
	keyFile        string
	knownHostsFile string
	timeout        time.Duration
}

func NewSFTPFileSource(password, keyFile, knownHostsFile string, timeout time.Duration) *SFTPFileSource {
	return &SFTPFileSource{password: password, keyFile: keyFile, knownHostsFile: knownHostsFile, timeout: timeout}
}

func (s *SFTPFileSource) clientConfig(u *url.URL) (*ssh.ClientConfig, error) {
	var auth []ssh.AuthMethod
	if s.keyFile != "" {
		key, err := os.ReadFile(s.keyFile)
		if err != nil {
			return nil, fmt.Errorf("read sftp key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parse sftp key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	password := s.password
	if p, ok := u.User.Password(); ok {
		password = p
	}
	if password != "" {
		auth = append(auth, ssh.Password(password))
	}
	if len(auth) == 0 {
		return nil, errors.New("sftp: no credentials configured")
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if s.knownHostsFile != "" {
		cb, err := knownhosts.New(s.knownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("load known hosts: %w", err)
		}
		hostKeyCallback = cb
	}

	return &ssh.ClientConfig{
		User:            u.User.Username(),
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         s.timeout,
	}, nil
}

func (s *SFTPFileSource) connect(uri string) (*sftp.Client, *ssh.Client, string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, nil, "", err
	}
	if u.User == nil || u.User.Username() == "" {
		return nil, nil, "", fmt.Errorf("sftp uri needs a user: %s", uri)
	}
	sshConfig, err := s.clientConfig(u)
	if err != nil {
		return nil, nil, "", err
	}
	host := u.Host
	if u.Port() == "" {
		host = net.JoinHostPort(u.Hostname(), "22")
	}

	sshConn, err := ssh.Dial("tcp", host, sshConfig)
	if err != nil {
		return nil, nil, "", err
	}
	sftpClient, err := sftp.NewClient(sshConn)
	if err != nil {
		sshConn.Close()
		return nil, nil, "", err
	}
	return sftpClient, sshConn, u.Path, nil
}

func (s *SFTPFileSource) Stat(_ context.Context, uri string) (FileInfo, error) {
	client, conn, remotePath, err := s.connect(uri)
	if err != nil {
		return FileInfo{}, err
	}
	defer conn.Close()
	defer client.Close()

	fi, err := client.Stat(remotePath)
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{Name: fi.Name(), Size: fi.Size()}, nil
}

func (s *SFTPFileSource) ReadAll(_ context.Context, uri string) ([]byte, error) {
	client, conn, remotePath, err := s.connect(uri)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	defer client.Close()

	f, err := client.Open(remotePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
