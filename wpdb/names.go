// Copyright (c) 2025 ToeiRei
// wpdatabase - WordPress multisite data access
// This source code is licensed under the MIT license found in the LICENSE file.

package wpdb

import "strconv"

// MainConnection is the name of the connection to the network-wide tables.
func MainConnection() string {
	return "main"
}

// BlogConnection is the name of the connection to blog id's tables.
func BlogConnection(id int64) string {
	return "blog." + strconv.FormatInt(id, 10)
}
