// Copyright (c) 2025 ToeiRei
// wpdatabase - WordPress multisite data access
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/toeirei/wpdatabase/database"
	"github.com/toeirei/wpdatabase/serialize"
	"github.com/uptrace/bun"
)

const userAlias = "u"

// User is a row of the network-wide users table.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`
	Base          `bun:"-"`

	ID            int64     `bun:"ID,pk,autoincrement"`
	Login         string    `bun:"user_login"`
	Pass          string    `bun:"user_pass"`
	Nicename      string    `bun:"user_nicename"`
	Email         string    `bun:"user_email"`
	URL           string    `bun:"user_url"`
	Registered    time.Time `bun:"user_registered"`
	ActivationKey string    `bun:"user_activation_key"`
	Status        bool      `bun:"user_status"`
	DisplayName   string    `bun:"display_name"`
	// Spam and Deleted only exist on multisite installs, so they are read
	// when present and never written.
	Spam    bool `bun:"spam,scanonly"`
	Deleted bool `bun:"deleted,scanonly"`
}

var userDefinition = Definition{
	Table:        "users",
	Alias:        userAlias,
	PrimaryKey:   "ID",
	Incrementing: true,
	CreatedAt:    "user_registered",
	Main:         true,
	Casts: map[string]Cast{
		"ID":                  CastInteger,
		"user_login":          CastString,
		"user_pass":           CastString,
		"user_nicename":       CastString,
		"user_email":          CastString,
		"user_url":            CastString,
		"user_registered":     CastDatetime,
		"user_activation_key": CastString,
		"user_status":         CastBoolean,
		"display_name":        CastString,
		"spam":                CastBoolean,
		"deleted":             CastBoolean,
	},
}

func (*User) Definition() Definition { return userDefinition }

func (*User) globalScopes(sel Selectors) []Scope {
	var scopes []Scope
	if len(sel.Roles) > 0 {
		roles := sel.Roles
		scopes = append(scopes, Scope{name: ScopeUserRole, apply: func(sq *bun.SelectQuery, conn *database.Connection) *bun.SelectQuery {
			return whereRoles(sq, conn, roles)
		}})
	}
	if sel.HasBlog {
		id := sel.BlogID
		scopes = append(scopes, Scope{name: ScopeUserBlog, apply: func(sq *bun.SelectQuery, conn *database.Connection) *bun.SelectQuery {
			return whereBlog(sq, conn, id)
		}})
	}
	return scopes
}

var _ bun.BeforeAppendModelHook = (*User)(nil)

func (u *User) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok && u.Registered.IsZero() {
		u.Registered = now()
	}
	return nil
}

// Users starts a query over the users table.
func Users(res Resolver, opts ...QueryOption) *Query[*User] {
	return NewQuery[*User](res, opts...)
}

// Metas relates the user to its usermeta rows.
func (u *User) Metas() *ToMany[*UserMeta] {
	return hasMany[*UserMeta](&u.Base, "metas", "user_id", u.ID)
}

// Posts relates the user to the posts they wrote, on the connection the
// user was loaded from.
func (u *User) Posts() *ToMany[*Post] {
	return hasMany[*Post](&u.Base, "posts", "post_author", u.ID)
}

// meta returns the decoded value of the first usermeta row with key, from
// the cached Metas relation.
func (u *User) meta(ctx context.Context, key string) (any, bool, error) {
	metas, err := u.Metas().Get(ctx)
	if err != nil {
		return nil, false, err
	}
	m, ok := firstMeta(metas, key)
	if !ok {
		return nil, false, nil
	}
	return m.MetaValue(), true, nil
}

func (u *User) metaString(ctx context.Context, key string) (string, error) {
	v, ok, err := u.meta(ctx, key)
	if err != nil || !ok || v == nil {
		return "", err
	}
	return serialize.NewValue(v).String(), nil
}

func (u *User) metaBool(ctx context.Context, key string) (bool, error) {
	v, _, err := u.meta(ctx, key)
	if err != nil {
		return false, err
	}
	return serialize.Truthy(v), nil
}

func (u *User) FirstName(ctx context.Context) (string, error) {
	return u.metaString(ctx, "first_name")
}

func (u *User) LastName(ctx context.Context) (string, error) {
	return u.metaString(ctx, "last_name")
}

func (u *User) Nickname(ctx context.Context) (string, error) {
	return u.metaString(ctx, "nickname")
}

func (u *User) Description(ctx context.Context) (string, error) {
	return u.metaString(ctx, "description")
}

func (u *User) Locale(ctx context.Context) (string, error) {
	return u.metaString(ctx, "locale")
}

func (u *User) AdminColor(ctx context.Context) (string, error) {
	return u.metaString(ctx, "admin_color")
}

func (u *User) SourceDomain(ctx context.Context) (string, error) {
	return u.metaString(ctx, "source_domain")
}

// PrimaryBlog returns the id of the user's primary blog, 0 when unset.
func (u *User) PrimaryBlog(ctx context.Context) (int64, error) {
	s, err := u.metaString(ctx, "primary_blog")
	if err != nil || s == "" {
		return 0, err
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, nil
	}
	return id, nil
}

func (u *User) RichEditing(ctx context.Context) (bool, error) {
	return u.metaBool(ctx, "rich_editing")
}

func (u *User) SyntaxHighlighting(ctx context.Context) (bool, error) {
	return u.metaBool(ctx, "syntax_highlighting")
}

func (u *User) CommentShortcuts(ctx context.Context) (bool, error) {
	return u.metaBool(ctx, "comment_shortcuts")
}

func (u *User) ShowAdminBarFront(ctx context.Context) (bool, error) {
	return u.metaBool(ctx, "show_admin_bar_front")
}

func (u *User) ShowWelcomePanel(ctx context.Context) (bool, error) {
	return u.metaBool(ctx, "show_welcome_panel")
}

func (u *User) UseSSL(ctx context.Context) (bool, error) {
	return u.metaBool(ctx, "use_ssl")
}

// CommunityEventsLocation returns the location the dashboard's events widget
// uses. A missing row gives an empty map; a scalar is stored under "0".
func (u *User) CommunityEventsLocation(ctx context.Context) (map[string]any, error) {
	v, _, err := u.meta(ctx, "community-events-location")
	if err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return x, nil
	case []any:
		out := make(map[string]any, len(x))
		for i, e := range x {
			out[strconv.Itoa(i)] = e
		}
		return out, nil
	}
	return map[string]any{"0": v}, nil
}

// Roles returns the roles granted by the capabilities meta of the
// connection's prefix, sorted.
func (u *User) Roles(ctx context.Context) ([]string, error) {
	if u.conn == nil {
		return nil, ErrUnbound
	}
	v, _, err := u.meta(ctx, CapabilitiesKey(u.conn.TablePrefix()))
	if err != nil {
		return nil, err
	}
	caps, ok := v.(map[string]any)
	if !ok {
		return nil, nil
	}
	var roles []string
	for role, granted := range caps {
		if serialize.Truthy(granted) {
			roles = append(roles, role)
		}
	}
	sort.Strings(roles)
	return roles, nil
}

// Role returns the first of Roles, or "".
func (u *User) Role(ctx context.Context) (string, error) {
	roles, err := u.Roles(ctx)
	if err != nil || len(roles) == 0 {
		return "", err
	}
	return roles[0], nil
}

// UserMeta is a row of the network-wide usermeta table.
type UserMeta struct {
	bun.BaseModel `bun:"table:usermeta,alias:um"`
	Base          `bun:"-"`

	ID     int64           `bun:"umeta_id,pk,autoincrement"`
	UserID int64           `bun:"user_id"`
	Key    string          `bun:"meta_key"`
	Value  serialize.Value `bun:"meta_value"`
}

var userMetaDefinition = Definition{
	Table:        "usermeta",
	Alias:        "um",
	PrimaryKey:   "umeta_id",
	Incrementing: true,
	Main:         true,
	Casts: map[string]Cast{
		"umeta_id":   CastInteger,
		"user_id":    CastInteger,
		"meta_key":   CastString,
		"meta_value": CastSerialized,
	},
}

func (*UserMeta) Definition() Definition { return userMetaDefinition }

func (m *UserMeta) MetaEntryID() int64 { return m.ID }
func (m *UserMeta) MetaKey() string { return m.Key }
func (m *UserMeta) MetaValue() any { return m.Value.Get() }

// User relates the row to its user.
func (m *UserMeta) User() *ToOne[*User] {
	return toOne[*User](&m.Base, "user", "ID", m.UserID)
}
