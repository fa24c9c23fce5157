package config

import (
	"net"
	neturl "net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// DSNValue renders the database section as a go-sql-driver DSN.
// An explicit dsn or url wins over the discrete fields.
func (c DatabaseRuntimeConfig) DSNValue() string {
	for _, explicit := range []string{c.DSN, c.URL} {
		if v := strings.TrimSpace(explicit); v != "" {
			return v
		}
	}

	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(firstNonEmpty(c.Host, defaultDBHost), strconv.Itoa(orDefault(c.Port, defaultDBPort)))
	mc.User = firstNonEmpty(c.User, c.Username, defaultDBUser)
	mc.Passwd = firstNonEmpty(c.Password, defaultDBPassword)
	mc.DBName = firstNonEmpty(c.Name, c.DBName, defaultDBName)
	mc.ParseTime = c.ParseTime
	mc.Loc = dbLocation(firstNonEmpty(c.Loc, defaultDBLoc))

	mc.Params = map[string]string{}
	for key, value := range c.Params {
		k, v := strings.TrimSpace(key), strings.TrimSpace(value)
		if k != "" && v != "" {
			mc.Params[k] = v
		}
	}
	if _, ok := mc.Params["charset"]; !ok {
		mc.Params["charset"] = firstNonEmpty(c.Charset, defaultDBCharset)
	}
	return mc.FormatDSN()
}

func dbLocation(name string) *time.Location {
	if strings.EqualFold(name, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}

// URLValue renders the redis section as a redis:// or rediss:// URL
// understood by redis.ParseURL.
func (c RedisRuntimeConfig) URLValue() string {
	if u := normalizeRedisRawURL(c.URL); u != "" {
		return u
	}

	db := c.DB
	if db < 0 {
		db = defaultRedisDB
	}
	scheme := strings.ToLower(strings.TrimSpace(c.Scheme))
	switch {
	case scheme == "redis" || scheme == "rediss":
	case c.TLS:
		scheme = "rediss"
	default:
		scheme = "redis"
	}

	u := &neturl.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(firstNonEmpty(c.Host, defaultRedisHost), strconv.Itoa(orDefault(c.Port, defaultRedisPort))),
		Path:   "/" + strconv.Itoa(db),
	}
	username, password := strings.TrimSpace(c.Username), strings.TrimSpace(c.Password)
	switch {
	case password != "":
		u.User = neturl.UserPassword(username, password)
	case username != "":
		u.User = neturl.User(username)
	}

	query := neturl.Values{}
	for key, value := range c.Params {
		k, v := strings.TrimSpace(key), strings.TrimSpace(value)
		if k != "" && v != "" {
			query.Set(k, v)
		}
	}
	u.RawQuery = query.Encode()
	return u.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
