package fragment

import "errors"

// ErrFragment indicates a fragment with an invalid total count, an
// out-of-bounds index, or a total that disagrees with other fragments
// already seen for the same message id.
var ErrFragment = errors.New("fragment: invalid fragment")
