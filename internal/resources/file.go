package resources

import (
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/griffithind/frog/internal/envelope"
	"github.com/griffithind/frog/internal/remotectx"
)

func init() {
	Register("file", "exists", fileExists)
	Register("file", "file_exists", isRegularFile)
	Register("file", "dir_exists", isDirectory)
	Register("file", "stat", statFile)
	Register("file", "mkdirs", mkdirs)
	Register("file", "touch", touch)
	Register("file", "get_contents", getContents)
	Register("file", "put", put)
	Register("file", "deploy", deploy)
}

func pathArg(args map[string]interface{}) string {
	p, _ := args["path"].(string)
	return p
}

func fileExists(h *remotectx.Handle, args map[string]interface{}) envelope.Envelope {
	path := pathArg(args)
	_, err := os.Stat(path)
	return envelope.Ok(h.Host().Host, map[string]interface{}{"exists": err == nil})
}

func isRegularFile(h *remotectx.Handle, args map[string]interface{}) envelope.Envelope {
	path := pathArg(args)
	info, err := os.Stat(path)
	exists := err == nil && info.Mode().IsRegular()
	return envelope.Ok(h.Host().Host, map[string]interface{}{"exists": exists})
}

func isDirectory(h *remotectx.Handle, args map[string]interface{}) envelope.Envelope {
	path := pathArg(args)
	info, err := os.Stat(path)
	exists := err == nil && info.IsDir()
	return envelope.Ok(h.Host().Host, map[string]interface{}{"exists": exists})
}

func statFile(h *remotectx.Handle, args map[string]interface{}) envelope.Envelope {
	path := pathArg(args)
	followSymlinks, _ := args["follow_symlinks"].(bool)

	var info os.FileInfo
	var err error
	if followSymlinks {
		info, err = os.Stat(path)
	} else {
		info, err = os.Lstat(path)
	}
	if err != nil {
		return envelope.Fail(h.Host().Host, err)
	}

	result := map[string]interface{}{
		"size":     info.Size(),
		"mode":     info.Mode().Perm().String(),
		"mod_time": info.ModTime().UTC().Format(time.RFC3339),
		"is_dir":   info.IsDir(),
	}
	if sys, ok := info.Sys().(*syscall.Stat_t); ok {
		result["uid"] = sys.Uid
		result["gid"] = sys.Gid
		result["inode"] = sys.Ino
	}
	return envelope.Ok(h.Host().Host, result)
}

func mkdirs(h *remotectx.Handle, args map[string]interface{}) envelope.Envelope {
	path := pathArg(args)
	mode := modeArg(args, "create_mode", 0o750)
	existOK, _ := args["exist_ok"].(bool)

	if _, err := os.Stat(path); err == nil {
		if !existOK {
			return envelope.Fail(h.Host().Host, os.ErrExist)
		}
		return envelope.Ok(h.Host().Host, map[string]interface{}{"changed": false})
	}

	if err := os.MkdirAll(path, mode); err != nil {
		return envelope.Fail(h.Host().Host, err)
	}
	return envelope.Ok(h.Host().Host, map[string]interface{}{"changed": true})
}

func touch(h *remotectx.Handle, args map[string]interface{}) envelope.Envelope {
	path := pathArg(args)
	mode := modeArg(args, "create_mode", 0o640)
	existOK, hasExistOK := args["exist_ok"].(bool)
	if !hasExistOK {
		existOK = true
	}

	_, statErr := os.Stat(path)
	existed := statErr == nil

	if existed && !existOK {
		return envelope.Fail(h.Host().Host, os.ErrExist)
	}

	if !existed {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, mode)
		if err != nil {
			return envelope.Fail(h.Host().Host, err)
		}
		f.Close()
		return envelope.Ok(h.Host().Host, map[string]interface{}{"changed": true})
	}

	now := time.Now()
	if err := os.Chtimes(path, now, now); err != nil {
		return envelope.Fail(h.Host().Host, err)
	}
	return envelope.Ok(h.Host().Host, map[string]interface{}{"changed": true})
}

func getContents(h *remotectx.Handle, args map[string]interface{}) envelope.Envelope {
	path := pathArg(args)
	data, err := os.ReadFile(path)
	if err != nil {
		return envelope.Fail(h.Host().Host, err)
	}
	return envelope.Ok(h.Host().Host, map[string]interface{}{"contents": string(data)})
}

func put(h *remotectx.Handle, args map[string]interface{}) envelope.Envelope {
	path := pathArg(args)
	contents, _ := args["contents"].(string)
	mode := modeArg(args, "mode", 0o600)
	overwrite, _ := args["overwrite"].(bool)

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return envelope.Fail(h.Host().Host, os.ErrExist)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	f, err := os.OpenFile(path, flags, mode)
	if err != nil {
		return envelope.Fail(h.Host().Host, err)
	}
	defer f.Close()

	if _, err := f.WriteString(contents); err != nil {
		return envelope.Fail(h.Host().Host, err)
	}

	if err := applyOwnership(path, args); err != nil {
		return envelope.Fail(h.Host().Host, err)
	}

	return envelope.Ok(h.Host().Host, map[string]interface{}{"changed": true})
}

// deploy writes a file and reports each step as its own sub-result,
// composing mkdirs (ensure the parent directory), put (write the
// contents), and stat (confirm what landed) into a single chained
// envelope rather than one opaque leaf result — the resource-internal
// composition spec.md's ResultChain exists for. Unlike put, deploy
// always overwrites; callers wanting the refuse-on-exists guard should
// use file.put directly.
func deploy(h *remotectx.Handle, args map[string]interface{}) envelope.Envelope {
	path := pathArg(args)
	parentMode := modeArg(args, "parent_mode", 0o750)

	ensureParent := envelope.NewThunk(func(host string) envelope.Envelope {
		return mkdirs(h, map[string]interface{}{
			"path":        filepath.Dir(path),
			"create_mode": int(parentMode),
			"exist_ok":    true,
		})
	})

	writeContents := envelope.NewThunk(func(host string) envelope.Envelope {
		putArgs := map[string]interface{}{}
		for k, v := range args {
			putArgs[k] = v
		}
		putArgs["overwrite"] = true
		return put(h, putArgs)
	})

	verify := envelope.NewThunk(func(host string) envelope.Envelope {
		return statFile(h, map[string]interface{}{"path": path})
	})

	return ensureParent.Then(writeContents).Then(verify).Execute(h.Host().Host)
}

func modeArg(args map[string]interface{}, key string, def os.FileMode) os.FileMode {
	switch v := args[key].(type) {
	case string:
		parsed, err := strconv.ParseUint(v, 8, 32)
		if err == nil {
			return os.FileMode(parsed)
		}
	case int:
		return os.FileMode(v)
	case float64:
		return os.FileMode(int(v))
	}
	return def
}

// applyOwnership chowns path when an owner/group argument names a user
// or group that resolves on this host, mirroring the original's
// _update_file_ownership defaulting to the current euid/egid.
func applyOwnership(path string, args map[string]interface{}) error {
	ownerName, hasOwner := args["owner"].(string)
	groupName, hasGroup := args["group"].(string)
	if !hasOwner && !hasGroup {
		return nil
	}

	uid := os.Geteuid()
	gid := os.Getegid()

	if hasOwner {
		u, err := user.Lookup(ownerName)
		if err != nil {
			return err
		}
		uid, _ = strconv.Atoi(u.Uid)
	}
	if hasGroup {
		g, err := user.LookupGroup(groupName)
		if err != nil {
			return err
		}
		gid, _ = strconv.Atoi(g.Gid)
	}
	return os.Chown(path, uid, gid)
}
