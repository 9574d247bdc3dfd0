package swap

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// Profile captures what the filesystem backing the swap file needs from the
// allocator and from activation-failure remediation.
type Profile int

const (
	// ProfileGeneric covers ext4, xfs and anything else without special needs.
	ProfileGeneric Profile = iota
	// ProfileCoW covers copy-on-write filesystems (btrfs): the swap file must
	// be created nodatacow and must contain no holes.
	ProfileCoW
	// ProfileZvol covers pooled-storage filesystems (zfs) where a dedicated
	// zvol is the supported way to run swap; file-backed swap is fragile there.
	ProfileZvol
	// ProfileUnknown means the filesystem could not be determined. Treated as
	// generic everywhere downstream.
	ProfileUnknown
)

func (p Profile) String() string {
	switch p {
	case ProfileCoW:
		return "copy-on-write (btrfs)"
	case ProfileZvol:
		return "pooled storage (zfs)"
	case ProfileUnknown:
		return "unknown"
	default:
		return "generic"
	}
}

// IsCoW reports whether the allocator must avoid sparse allocation entirely.
func (p Profile) IsCoW() bool { return p == ProfileCoW }

const (
	btrfsSuperMagic = 0x9123683e
	zfsSuperMagic   = 0x2fc12fc1
)

// Inspector determines the filesystem profile for a swap file's directory.
// ProcMounts is a field so tests can point it at a fixture.
type Inspector struct {
	ProcMounts string
}

func NewInspector() *Inspector {
	return &Inspector{ProcMounts: "/proc/mounts"}
}

// Inspect resolves the parent directory of path (creating it if absent) and
// maps its filesystem to a Profile. Inspection failures degrade to
// ProfileUnknown; provisioning is never blocked on a failed query.
func (in *Inspector) Inspect(path string) Profile {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return ProfileUnknown
	}

	var st unix.Statfs_t
	statfsOK := unix.Statfs(dir, &st) == nil
	if statfsOK {
		switch uint32(st.Type) {
		case btrfsSuperMagic:
			return ProfileCoW
		case zfsSuperMagic:
			return ProfileZvol
		}
		// Statfs succeeded but the magic is not one we special-case; still
		// consult /proc/mounts since zfs magics vary across platforms.
	}

	fsType := in.mountType(dir)
	if fsType == "" && statfsOK {
		// The type query itself succeeded, it just found nothing special.
		return ProfileGeneric
	}
	return ProfileForFsType(fsType)
}

// ProfileForFsType maps a filesystem type string to a Profile.
func ProfileForFsType(fsType string) Profile {
	switch fsType {
	case "btrfs":
		return ProfileCoW
	case "zfs":
		return ProfileZvol
	case "":
		return ProfileUnknown
	default:
		return ProfileGeneric
	}
}

// mountType returns the fstype of the longest mount point prefixing dir,
// or "" when /proc/mounts cannot be read.
func (in *Inspector) mountType(dir string) string {
	f, err := os.Open(in.ProcMounts)
	if err != nil {
		return ""
	}
	defer f.Close()

	replacer := strings.NewReplacer(`\040`, " ", `\011`, "\t", `\012`, "\n", `\134`, `\`)

	bestLen := -1
	bestType := ""
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		mount := replacer.Replace(fields[1])
		if pathOnMount(dir, mount) && len(mount) > bestLen {
			bestLen = len(mount)
			bestType = fields[2]
		}
	}
	return bestType
}

func pathOnMount(path, mount string) bool {
	if mount == "/" {
		return true
	}
	if !strings.HasPrefix(path, mount) {
		return false
	}
	if len(path) == len(mount) {
		return true
	}
	return strings.HasPrefix(path[len(mount):], "/")
}

// FreeSpace reports the available bytes on the filesystem containing dir.
func FreeSpace(dir string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(dir, &st); err != nil {
		return 0, err
	}
	return st.Bavail * uint64(st.Bsize), nil
}
