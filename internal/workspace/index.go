package workspace

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/rmlabs/wsm/internal/wmerr"
)

// LookupRoot resolves a workspace alias to its root path via the
// global workspace index.
//
// The index is a JSON file mapping aliases to roots:
//
//	{"workspaces": {"bcs": "/home/rm/bcs"}}
//
// Search order: indexPath if non-empty, then $WSM_CONFIG, then
// ./wsm.json, then ~/.wsm/wsm.json.
func LookupRoot(indexPath, alias string) (string, error) {
	v := viper.New()
	v.SetConfigType("json")

	if indexPath == "" {
		indexPath = os.Getenv("WSM_CONFIG")
	}
	if indexPath != "" {
		v.SetConfigFile(indexPath)
	} else {
		v.SetConfigName("wsm")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".wsm"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return "", wmerr.Wrap(wmerr.KindConfig, err, "reading workspace index")
	}

	root := v.GetString("workspaces." + alias)
	if root == "" {
		return "", wmerr.E(wmerr.KindConfig, "unknown workspace alias %q", alias)
	}
	return root, nil
}
