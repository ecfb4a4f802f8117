package bda

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

const defaultProfileID = "us.data-automation-v1"

// ProfileResolver fills in the data automation profile ARN when none is configured.
type ProfileResolver struct {
	identity IdentityAPI
	region   string
}

func NewProfileResolver(identity IdentityAPI, region string) *ProfileResolver {
	return &ProfileResolver{identity: identity, region: region}
}

// Resolve returns configured unchanged when set, otherwise the account's
// default cross-region profile in the resolver's region.
func (p *ProfileResolver) Resolve(ctx context.Context, configured string) (string, error) {
	if arn := strings.TrimSpace(configured); arn != "" {
		return arn, nil
	}
	if p == nil || p.identity == nil {
		return "", fmt.Errorf("%w: no profile configured and no identity client", ErrInvalidProfile)
	}
	if strings.TrimSpace(p.region) == "" {
		return "", fmt.Errorf("%w: region is required to derive a profile", ErrInvalidProfile)
	}
	out, err := p.identity.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("get caller identity: %w", err)
	}
	account := aws.ToString(out.Account)
	if account == "" {
		return "", fmt.Errorf("%w: caller identity has no account", ErrInvalidProfile)
	}
	return ProfileARN(p.region, account), nil
}

func ProfileARN(region, account string) string {
	return fmt.Sprintf("arn:aws:bedrock:%s:%s:data-automation-profile/%s", region, account, defaultProfileID)
}

// validARN checks the arn:partition:service:region:account:resource shape.
func validARN(arn string) bool {
	parts := strings.SplitN(arn, ":", 6)
	if len(parts) != 6 || parts[0] != "arn" {
		return false
	}
	return parts[1] != "" && parts[2] != "" && parts[5] != ""
}
